package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	"github.com/yagnesh-3/Fira-sub001/internal/idempotency"
	"github.com/yagnesh-3/Fira-sub001/internal/log"
	"github.com/yagnesh-3/Fira-sub001/internal/observability"
)

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventBus interface {
	Publish(ctx context.Context, event any) error
}

type VenuesRepo interface {
	Get(ctx context.Context, id uuid.UUID) (entities.Venue, error)
	Lock(ctx context.Context, id uuid.UUID) (entities.Venue, error)
}

type BookingsRepo interface {
	Add(ctx context.Context, b entities.Booking) error
	Get(ctx context.Context, id uuid.UUID) (entities.Booking, error)
	UpdateByID(ctx context.Context, id uuid.UUID, updateFn func(b entities.Booking) (entities.Booking, error)) (entities.Booking, error)
	ListBlockingOverlaps(ctx context.Context, venueID uuid.UUID, window entities.Window, excludeID uuid.UUID) ([]entities.Booking, error)
}

type PaymentsRepo interface {
	Get(ctx context.Context, id uuid.UUID) (entities.Payment, error)
}

type PaymentInitiator interface {
	Initiate(ctx context.Context, ref entities.PaymentReference, amount int64, userID uuid.UUID) (entities.Payment, error)
}

type Refunds interface {
	OpenFullRefund(ctx context.Context, payment entities.Payment, requesterID uuid.UUID, reason string) (*entities.Refund, error)
	HasOpenRefund(ctx context.Context, paymentID uuid.UUID) (bool, error)
}

type Usecase struct {
	tx       TxManager
	bus      EventBus
	venues   VenuesRepo
	bookings BookingsRepo
	payments PaymentsRepo
	checkout PaymentInitiator
	refunds  Refunds

	feePercentage float64
}

func NewUsecase(
	tx TxManager,
	bus EventBus,
	venues VenuesRepo,
	bookings BookingsRepo,
	payments PaymentsRepo,
	checkout PaymentInitiator,
	refunds Refunds,
	feePercentage float64,
) *Usecase {
	return &Usecase{
		tx:            tx,
		bus:           bus,
		venues:        venues,
		bookings:      bookings,
		payments:      payments,
		checkout:      checkout,
		refunds:       refunds,
		feePercentage: feePercentage,
	}
}

type CreateBookingParams struct {
	VenueID        uuid.UUID
	Window         entities.Window
	ExpectedGuests int
	Purpose        string
}

// CreateBooking requests a venue window. The venue row is locked for the availability check,
// so two requests for the same venue are serialized.
func (u *Usecase) CreateBooking(ctx context.Context, requesterID uuid.UUID, params CreateBookingParams) (entities.Booking, error) {
	if err := params.Window.Validate(); err != nil {
		return entities.Booking{}, err
	}

	var booking entities.Booking
	err := u.tx.Do(ctx, func(ctx context.Context) error {
		venue, err := u.venues.Lock(ctx, params.VenueID)
		if err != nil {
			return err
		}

		booking, err = entities.NewBooking(
			requesterID,
			venue,
			params.Window,
			params.ExpectedGuests,
			params.Purpose,
			u.feePercentage,
			time.Now(),
		)
		if err != nil {
			return err
		}

		if err := u.checkAvailability(ctx, venue, booking); err != nil {
			return err
		}

		if err := u.bookings.Add(ctx, booking); err != nil {
			return fmt.Errorf("failed to add booking: %w", err)
		}

		return u.bus.Publish(ctx, &entities.BookingCreated_v1{
			Header:      idempotency.EventHeader(ctx),
			BookingID:   booking.ID,
			VenueID:     booking.VenueID,
			RequesterID: booking.RequesterID,
			StartTime:   booking.StartTime,
			EndTime:     booking.EndTime,
			TotalAmount: booking.TotalAmount,
		})
	})
	if err != nil {
		observability.CountConflict("create_booking", err)
		return entities.Booking{}, err
	}

	log.FromContext(ctx).
		WithField("booking_id", booking.ID).
		WithField("venue_id", booking.VenueID).
		Info("Booking requested")

	return booking, nil
}

// checkAvailability must run with the venue row locked.
func (u *Usecase) checkAvailability(ctx context.Context, venue entities.Venue, booking entities.Booking) error {
	window := booking.Window()
	for day := window.Date(); day.Before(window.End); day = day.AddDate(0, 0, 1) {
		if venue.IsBlocked(day) {
			return fmt.Errorf("%s is blocked: %w", day.Format(time.DateOnly), entities.ErrVenueUnavailable)
		}
	}

	overlaps, err := u.bookings.ListBlockingOverlaps(ctx, venue.ID, window, booking.ID)
	if err != nil {
		return fmt.Errorf("failed to list overlapping bookings: %w", err)
	}
	if len(overlaps) > 0 {
		return fmt.Errorf("overlaps booking %s: %w", overlaps[0].ID, entities.ErrVenueUnavailable)
	}

	return nil
}

func (u *Usecase) Respond(
	ctx context.Context,
	bookingID uuid.UUID,
	ownerID uuid.UUID,
	decision entities.BookingDecision,
	reason string,
) (entities.Booking, error) {
	var booking entities.Booking
	err := u.tx.Do(ctx, func(ctx context.Context) error {
		current, err := u.bookings.Get(ctx, bookingID)
		if err != nil {
			return err
		}

		venue, err := u.venues.Lock(ctx, current.VenueID)
		if err != nil {
			return err
		}
		if venue.OwnerID != ownerID {
			return entities.Errorf(entities.ErrForbidden, "only the venue owner can respond to booking %s", bookingID)
		}

		booking, err = u.bookings.UpdateByID(ctx, bookingID, func(b entities.Booking) (entities.Booking, error) {
			if err := b.Respond(decision, reason, time.Now()); err != nil {
				return entities.Booking{}, err
			}
			if b.Status == entities.BookingStatusAccepted {
				if err := u.checkAvailability(ctx, venue, b); err != nil {
					return entities.Booking{}, err
				}
			}
			return b, nil
		})
		if err != nil {
			return err
		}

		return u.bus.Publish(ctx, &entities.BookingResponded_v1{
			Header:      idempotency.EventHeader(ctx),
			BookingID:   booking.ID,
			RequesterID: booking.RequesterID,
			Decision:    decision,
			Reason:      reason,
		})
	})
	if err != nil {
		observability.CountConflict("respond_booking", err)
		return entities.Booking{}, err
	}

	log.FromContext(ctx).
		WithField("booking_id", booking.ID).
		WithField("status", booking.Status).
		Info("Booking answered by the owner")

	return booking, nil
}

type CancelResult struct {
	Booking entities.Booking `json:"booking"`
	Refund  *entities.Refund `json:"refund,omitempty"`
}

// Cancel withdraws a pending or accepted booking. A paid booking keeps paymentStatus=paid
// until the opened refund completes.
func (u *Usecase) Cancel(ctx context.Context, bookingID, actorID uuid.UUID, reason string) (CancelResult, error) {
	var result CancelResult

	err := u.tx.Do(ctx, func(ctx context.Context) error {
		current, err := u.bookings.Get(ctx, bookingID)
		if err != nil {
			return err
		}
		venue, err := u.venues.Get(ctx, current.VenueID)
		if err != nil {
			return err
		}
		if actorID != current.RequesterID && actorID != venue.OwnerID {
			return entities.Errorf(entities.ErrForbidden, "booking %s can only be cancelled by its requester or the venue owner", bookingID)
		}

		result.Booking, err = u.bookings.UpdateByID(ctx, bookingID, func(b entities.Booking) (entities.Booking, error) {
			if err := b.Cancel(reason, time.Now()); err != nil {
				return entities.Booking{}, err
			}
			return b, nil
		})
		if err != nil {
			return err
		}

		if result.Booking.IsPaid() && result.Booking.PaymentRef != nil {
			payment, err := u.payments.Get(ctx, *result.Booking.PaymentRef)
			if err != nil {
				return err
			}
			result.Refund, err = u.refunds.OpenFullRefund(ctx, payment, actorID, "booking cancelled: "+reason)
			if err != nil {
				return err
			}
		}

		event := &entities.BookingCancelled_v1{
			Header:      idempotency.EventHeader(ctx),
			BookingID:   result.Booking.ID,
			RequesterID: result.Booking.RequesterID,
			CancelledBy: actorID,
			Reason:      reason,
		}
		if result.Refund != nil {
			event.RefundID = &result.Refund.ID
		}
		return u.bus.Publish(ctx, event)
	})
	if err != nil {
		return CancelResult{}, err
	}

	log.FromContext(ctx).
		WithField("booking_id", bookingID).
		WithField("refund_opened", result.Refund != nil).
		Info("Booking cancelled")

	return result, nil
}

func (u *Usecase) InitiatePayment(ctx context.Context, bookingID, payerID uuid.UUID) (entities.Payment, error) {
	booking, err := u.bookings.Get(ctx, bookingID)
	if err != nil {
		return entities.Payment{}, err
	}
	if booking.RequesterID != payerID {
		return entities.Payment{}, entities.Errorf(entities.ErrForbidden, "only the requester pays for booking %s", bookingID)
	}
	if booking.Status != entities.BookingStatusAccepted {
		return entities.Payment{}, entities.Errorf(entities.ErrInvalidState, "booking %s is %s, not accepted", bookingID, booking.Status)
	}
	if booking.TotalAmount == 0 {
		return entities.Payment{}, entities.Errorf(entities.ErrInvalidState, "booking %s is free", bookingID)
	}
	if !booking.AwaitingPayment() {
		return entities.Payment{}, entities.Errorf(entities.ErrInvalidState, "booking %s payment is %s", bookingID, booking.PaymentStatus)
	}

	return u.checkout.Initiate(ctx, entities.BookingReference(booking.ID), booking.TotalAmount, payerID)
}

func (u *Usecase) Complete(ctx context.Context, bookingID, ownerID uuid.UUID) (entities.Booking, error) {
	var booking entities.Booking
	err := u.tx.Do(ctx, func(ctx context.Context) error {
		current, err := u.bookings.Get(ctx, bookingID)
		if err != nil {
			return err
		}
		venue, err := u.venues.Get(ctx, current.VenueID)
		if err != nil {
			return err
		}
		if venue.OwnerID != ownerID {
			return entities.Errorf(entities.ErrForbidden, "only the venue owner can complete booking %s", bookingID)
		}

		booking, err = u.bookings.UpdateByID(ctx, bookingID, func(b entities.Booking) (entities.Booking, error) {
			if err := b.Complete(time.Now()); err != nil {
				return entities.Booking{}, err
			}
			return b, nil
		})
		if err != nil || booking.PaymentRef == nil {
			return err
		}

		// checked under the booking row lock taken above
		refunding, err := u.refunds.HasOpenRefund(ctx, *booking.PaymentRef)
		if err != nil {
			return err
		}
		if refunding {
			return entities.Errorf(entities.ErrInvalidState, "booking %s has a refund in progress", bookingID)
		}
		return nil
	})
	if err != nil {
		return entities.Booking{}, err
	}

	return booking, nil
}

func (u *Usecase) GetBooking(ctx context.Context, actor entities.Actor, bookingID uuid.UUID) (entities.Booking, error) {
	booking, err := u.bookings.Get(ctx, bookingID)
	if err != nil {
		return entities.Booking{}, err
	}
	if actor.IsAdmin() || actor.ID == booking.RequesterID {
		return booking, nil
	}

	venue, err := u.venues.Get(ctx, booking.VenueID)
	if err != nil {
		return entities.Booking{}, err
	}
	if venue.OwnerID != actor.ID {
		return entities.Booking{}, entities.Errorf(entities.ErrForbidden, "booking %s is not visible to %s", bookingID, actor.ID)
	}
	return booking, nil
}
