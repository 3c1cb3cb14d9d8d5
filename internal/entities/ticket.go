package entities

import (
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	// TicketStatusPending is a priced ticket waiting for its payment to be verified.
	TicketStatusPending   TicketStatus = "pending"
	TicketStatusActive    TicketStatus = "active"
	TicketStatusUsed      TicketStatus = "used"
	TicketStatusCancelled TicketStatus = "cancelled"
	TicketStatusExpired   TicketStatus = "expired"
)

type Ticket struct {
	ID           uuid.UUID    `json:"id"`
	Code         string       `json:"ticket_id"`
	UserID       uuid.UUID    `json:"user_id"`
	EventID      uuid.UUID    `json:"event_id"`
	QRPayload    string       `json:"qr_payload"`
	TicketType   TicketType   `json:"ticket_type"`
	Price        int64        `json:"price"`
	Quantity     int          `json:"quantity"`
	PaymentRef   *uuid.UUID   `json:"payment_ref,omitempty"`
	Status       TicketStatus `json:"status"`
	IsUsed       bool         `json:"is_used"`
	UsedAt       *time.Time   `json:"used_at,omitempty"`
	CheckedInBy  *uuid.UUID   `json:"checked_in_by,omitempty"`
	CancelReason string       `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func NewTicket(
	userID uuid.UUID,
	event Event,
	quantity int,
	ticketType TicketType,
	codec QRCodec,
	now time.Time,
) (Ticket, error) {
	if userID == uuid.Nil {
		return Ticket{}, Errorf(ErrValidation, "user id must be set")
	}
	if quantity < 1 {
		return Ticket{}, Errorf(ErrValidation, "quantity must be at least 1")
	}
	if ticketType == "" {
		ticketType = event.TicketType
	}
	if ticketType != event.TicketType {
		return Ticket{}, Errorf(ErrValidation, "event %s sells %s tickets, not %s", event.ID, event.TicketType, ticketType)
	}

	code, err := NewTicketCode()
	if err != nil {
		return Ticket{}, err
	}

	now = now.UTC()
	t := Ticket{
		ID:         uuid.New(),
		Code:       code,
		UserID:     userID,
		EventID:    event.ID,
		TicketType: ticketType,
		Price:      event.TicketPrice * int64(quantity),
		Quantity:   quantity,
		Status:     TicketStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	t.QRPayload = codec.Encode(t.Code, t.EventID, t.UserID)

	if t.IsFree() {
		t.Status = TicketStatusActive
	}

	return t, nil
}

func (t Ticket) IsFree() bool {
	return t.Price == 0
}

func (t Ticket) AwaitingPayment() bool {
	return t.Status == TicketStatusPending && !t.IsFree()
}

func (t *Ticket) Activate(paymentID uuid.UUID, now time.Time) error {
	if !t.AwaitingPayment() {
		return Errorf(ErrInvalidState, "ticket %s is %s, not awaiting payment", t.Code, t.Status)
	}
	t.Status = TicketStatusActive
	t.PaymentRef = &paymentID
	t.UpdatedAt = now.UTC()
	return nil
}

// AttachPayment links a late payment without activating the ticket.
func (t *Ticket) AttachPayment(paymentID uuid.UUID, now time.Time) {
	t.PaymentRef = &paymentID
	t.UpdatedAt = now.UTC()
}

// CheckAdmission validates a scan without changing the ticket.
func (t Ticket) CheckAdmission(codec QRCodec, payload string, scannerEventID uuid.UUID) error {
	decoded, err := codec.Decode(payload)
	if err != nil {
		return ErrInvalidTicketCode
	}
	if decoded.Code != t.Code || decoded.UserID != t.UserID {
		return ErrInvalidTicketCode
	}
	if decoded.EventID != t.EventID {
		return ErrInvalidTicketCode
	}
	if scannerEventID != uuid.Nil && scannerEventID != t.EventID {
		return ErrWrongEvent
	}
	if t.IsUsed {
		return ErrAlreadyUsed
	}
	if t.Status != TicketStatusActive {
		return Errorf(ErrInvalidState, "ticket %s is %s", t.Code, t.Status)
	}
	return nil
}

// CheckIn is one-way: IsUsed never goes back to false.
func (t *Ticket) CheckIn(staffID uuid.UUID, now time.Time) error {
	if t.IsUsed {
		return ErrAlreadyUsed
	}
	if t.Status != TicketStatusActive {
		return Errorf(ErrInvalidState, "ticket %s is %s", t.Code, t.Status)
	}

	now = now.UTC()
	t.IsUsed = true
	t.UsedAt = &now
	t.CheckedInBy = &staffID
	t.Status = TicketStatusUsed
	t.UpdatedAt = now
	return nil
}

// CheckRefundable refuses refunds once the holder has been admitted.
func (t Ticket) CheckRefundable() error {
	if t.IsUsed {
		return Errorf(ErrInvalidState, "ticket %s was already used", t.Code)
	}
	return nil
}

func (t *Ticket) Cancel(reason string, now time.Time) error {
	if t.Status != TicketStatusActive && t.Status != TicketStatusPending {
		return Errorf(ErrInvalidState, "ticket %s is %s and cannot be cancelled", t.Code, t.Status)
	}
	t.Status = TicketStatusCancelled
	t.CancelReason = reason
	t.UpdatedAt = now.UTC()
	return nil
}

func (t *Ticket) Expire(now time.Time) error {
	if t.Status != TicketStatusPending {
		return Errorf(ErrInvalidState, "ticket %s is %s, not pending", t.Code, t.Status)
	}
	t.Status = TicketStatusExpired
	t.UpdatedAt = now.UTC()
	return nil
}
