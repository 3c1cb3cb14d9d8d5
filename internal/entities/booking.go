package entities

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

type BookingPaymentStatus string

const (
	BookingPaymentPending  BookingPaymentStatus = "pending"
	BookingPaymentPaid     BookingPaymentStatus = "paid"
	BookingPaymentRefunded BookingPaymentStatus = "refunded"
	BookingPaymentFailed   BookingPaymentStatus = "failed"
)

type BookingDecision string

const (
	BookingDecisionAccept BookingDecision = "accept"
	BookingDecisionReject BookingDecision = "reject"
)

// Window is a half-open [Start, End) interval on a venue's calendar.
type Window struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return Errorf(ErrValidation, "start and end time must be set")
	}
	if !w.End.After(w.Start) {
		return ErrInvalidWindow
	}
	return nil
}

func (w Window) Date() time.Time {
	return TruncateToDate(w.Start)
}

func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// BillableHours rounds partial hours up.
func (w Window) BillableHours() int64 {
	return int64(math.Ceil(w.End.Sub(w.Start).Hours()))
}

type Booking struct {
	ID                 uuid.UUID            `json:"id" db:"id"`
	RequesterID        uuid.UUID            `json:"requester_id" db:"requester_id"`
	VenueID            uuid.UUID            `json:"venue_id" db:"venue_id"`
	EventID            *uuid.UUID           `json:"event_id,omitempty" db:"event_id"`
	Date               time.Time            `json:"date" db:"date"`
	StartTime          time.Time            `json:"start_time" db:"start_time"`
	EndTime            time.Time            `json:"end_time" db:"end_time"`
	ExpectedGuests     int                  `json:"expected_guests" db:"expected_guests"`
	Purpose            string               `json:"purpose" db:"purpose"`
	TotalAmount        int64                `json:"total_amount" db:"total_amount"`
	PlatformFee        int64                `json:"platform_fee" db:"platform_fee"`
	Status             BookingStatus        `json:"status" db:"status"`
	PaymentStatus      BookingPaymentStatus `json:"payment_status" db:"payment_status"`
	PaymentRef         *uuid.UUID           `json:"payment_ref,omitempty" db:"payment_ref"`
	RejectionReason    string               `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CancellationReason string               `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	OwnerRespondedAt   *time.Time           `json:"owner_responded_at,omitempty" db:"owner_responded_at"`
	CreatedAt          time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at" db:"updated_at"`
}

func NewBooking(
	requesterID uuid.UUID,
	venue Venue,
	window Window,
	guests int,
	purpose string,
	feePercentage float64,
	now time.Time,
) (Booking, error) {
	if requesterID == uuid.Nil {
		return Booking{}, Errorf(ErrValidation, "requester id must be set")
	}
	if err := window.Validate(); err != nil {
		return Booking{}, err
	}
	if guests <= 0 {
		return Booking{}, Errorf(ErrValidation, "expected guests must be greater than 0")
	}
	if guests > venue.Capacity {
		return Booking{}, Errorf(ErrValidation, "expected guests %d exceed venue capacity %d", guests, venue.Capacity)
	}

	total := venue.PricePerHour * window.BillableHours()
	now = now.UTC()

	return Booking{
		ID:             uuid.New(),
		RequesterID:    requesterID,
		VenueID:        venue.ID,
		Date:           window.Date(),
		StartTime:      window.Start.UTC(),
		EndTime:        window.End.UTC(),
		ExpectedGuests: guests,
		Purpose:        purpose,
		TotalAmount:    total,
		PlatformFee:    ComputeFee(total, feePercentage).Platform,
		Status:         BookingStatusPending,
		PaymentStatus:  BookingPaymentPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (b Booking) Window() Window {
	return Window{Start: b.StartTime, End: b.EndTime}
}

// BlocksVenue reports whether the booking holds its window against other requests.
// Pending bookings never block.
func (b Booking) BlocksVenue() bool {
	return b.Status == BookingStatusAccepted || b.Status == BookingStatusCompleted
}

func (b Booking) IsPaid() bool {
	return b.PaymentStatus == BookingPaymentPaid
}

func (b Booking) AwaitingPayment() bool {
	return b.Status == BookingStatusAccepted &&
		b.TotalAmount > 0 &&
		(b.PaymentStatus == BookingPaymentPending || b.PaymentStatus == BookingPaymentFailed)
}

func (b *Booking) Respond(decision BookingDecision, reason string, now time.Time) error {
	if b.Status != BookingStatusPending {
		return Errorf(ErrInvalidState, "booking %s is %s, not pending", b.ID, b.Status)
	}

	now = now.UTC()
	switch decision {
	case BookingDecisionAccept:
		b.Status = BookingStatusAccepted
	case BookingDecisionReject:
		if reason == "" {
			return Errorf(ErrValidation, "rejection reason is required")
		}
		b.Status = BookingStatusRejected
		b.RejectionReason = reason
	default:
		return Errorf(ErrValidation, "unknown decision %q", decision)
	}

	b.OwnerRespondedAt = &now
	b.UpdatedAt = now
	return nil
}

func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.Status != BookingStatusPending && b.Status != BookingStatusAccepted {
		return Errorf(ErrInvalidState, "booking %s is %s and cannot be cancelled", b.ID, b.Status)
	}

	b.Status = BookingStatusCancelled
	b.CancellationReason = reason
	b.UpdatedAt = now.UTC()
	return nil
}

func (b *Booking) MarkPaid(paymentID uuid.UUID, now time.Time) error {
	if !b.AwaitingPayment() {
		return Errorf(ErrInvalidState, "booking %s is not awaiting payment", b.ID)
	}

	b.PaymentStatus = BookingPaymentPaid
	b.PaymentRef = &paymentID
	b.UpdatedAt = now.UTC()
	return nil
}

// CheckRefundable refuses refunds of the payment that settled a completed booking.
func (b Booking) CheckRefundable(paymentID uuid.UUID) error {
	if b.Status == BookingStatusCompleted && b.PaymentRef != nil && *b.PaymentRef == paymentID {
		return Errorf(ErrInvalidState, "booking %s is completed, its payment is settled", b.ID)
	}
	return nil
}

func (b *Booking) MarkRefunded(now time.Time) {
	b.PaymentStatus = BookingPaymentRefunded
	b.UpdatedAt = now.UTC()
}

func (b *Booking) Complete(now time.Time) error {
	if b.Status != BookingStatusAccepted {
		return Errorf(ErrInvalidState, "booking %s is %s, not accepted", b.ID, b.Status)
	}
	if b.TotalAmount > 0 && !b.IsPaid() {
		return Errorf(ErrInvalidState, "booking %s is not paid", b.ID)
	}
	if now.Before(b.EndTime) {
		return Errorf(ErrInvalidState, "booking %s window has not ended yet", b.ID)
	}

	b.Status = BookingStatusCompleted
	b.UpdatedAt = now.UTC()
	return nil
}
