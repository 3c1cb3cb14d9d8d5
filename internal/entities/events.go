package entities

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is implemented by every event published on the bus.
type DomainEvent interface {
	GetHeader() EventHeader
}

type BookingCreated_v1 struct {
	Header EventHeader `json:"header"`

	BookingID   uuid.UUID `json:"booking_id"`
	VenueID     uuid.UUID `json:"venue_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	TotalAmount int64     `json:"total_amount"`
}

func (e BookingCreated_v1) GetHeader() EventHeader { return e.Header }

type BookingResponded_v1 struct {
	Header EventHeader `json:"header"`

	BookingID   uuid.UUID       `json:"booking_id"`
	RequesterID uuid.UUID       `json:"requester_id"`
	Decision    BookingDecision `json:"decision"`
	Reason      string          `json:"reason,omitempty"`
}

func (e BookingResponded_v1) GetHeader() EventHeader { return e.Header }

type BookingCancelled_v1 struct {
	Header EventHeader `json:"header"`

	BookingID   uuid.UUID  `json:"booking_id"`
	RequesterID uuid.UUID  `json:"requester_id"`
	CancelledBy uuid.UUID  `json:"cancelled_by"`
	Reason      string     `json:"reason"`
	RefundID    *uuid.UUID `json:"refund_id,omitempty"`
}

func (e BookingCancelled_v1) GetHeader() EventHeader { return e.Header }

type EventSubmitted_v1 struct {
	Header EventHeader `json:"header"`

	EventID     uuid.UUID `json:"event_id"`
	OrganizerID uuid.UUID `json:"organizer_id"`
	VenueID     uuid.UUID `json:"venue_id"`
	Title       string    `json:"title"`
}

func (e EventSubmitted_v1) GetHeader() EventHeader { return e.Header }

type EventApprovalDecided_v1 struct {
	Header EventHeader `json:"header"`

	EventID     uuid.UUID        `json:"event_id"`
	OrganizerID uuid.UUID        `json:"organizer_id"`
	Stage       ApprovalStage    `json:"stage"`
	Decision    ApprovalDecision `json:"decision"`
	Reason      string           `json:"reason,omitempty"`
	Status      EventStatus      `json:"status"`
}

func (e EventApprovalDecided_v1) GetHeader() EventHeader { return e.Header }

type EventPublished_v1 struct {
	Header EventHeader `json:"header"`

	EventID      uuid.UUID `json:"event_id"`
	OrganizerID  uuid.UUID `json:"organizer_id"`
	Title        string    `json:"title"`
	MaxAttendees int       `json:"max_attendees"`
	StartsAt     time.Time `json:"starts_at"`
}

func (e EventPublished_v1) GetHeader() EventHeader { return e.Header }

type PaymentInitiated_v1 struct {
	Header EventHeader `json:"header"`

	PaymentID      uuid.UUID        `json:"payment_id"`
	UserID         uuid.UUID        `json:"user_id"`
	Reference      PaymentReference `json:"reference"`
	Amount         int64            `json:"amount"`
	GatewayOrderID string           `json:"gateway_order_id"`
}

func (e PaymentInitiated_v1) GetHeader() EventHeader { return e.Header }

type PaymentSucceeded_v1 struct {
	Header EventHeader `json:"header"`

	PaymentID   uuid.UUID        `json:"payment_id"`
	UserID      uuid.UUID        `json:"user_id"`
	Reference   PaymentReference `json:"reference"`
	Amount      int64            `json:"amount"`
	PlatformFee int64            `json:"platform_fee"`
	NetAmount   int64            `json:"net_amount"`
	Currency    string           `json:"currency"`
	PaidAt      time.Time        `json:"paid_at"`

	// Activated is false when the payment arrived after its reference stopped waiting for it.
	Activated bool `json:"activated"`
}

func (e PaymentSucceeded_v1) GetHeader() EventHeader { return e.Header }

type PaymentFailed_v1 struct {
	Header EventHeader `json:"header"`

	PaymentID uuid.UUID        `json:"payment_id"`
	UserID    uuid.UUID        `json:"user_id"`
	Reference PaymentReference `json:"reference"`
	Reason    string           `json:"reason"`
}

func (e PaymentFailed_v1) GetHeader() EventHeader { return e.Header }

type TicketIssued_v1 struct {
	Header EventHeader `json:"header"`

	TicketID    uuid.UUID `json:"ticket_id"`
	TicketCode  string    `json:"ticket_code"`
	EventID     uuid.UUID `json:"event_id"`
	UserID      uuid.UUID `json:"user_id"`
	Quantity    int       `json:"quantity"`
	Price       int64     `json:"price"`
	PlatformFee int64     `json:"platform_fee"`
	NetAmount   int64     `json:"net_amount"`
}

func (e TicketIssued_v1) GetHeader() EventHeader { return e.Header }

type TicketCheckedIn_v1 struct {
	Header EventHeader `json:"header"`

	TicketID    uuid.UUID `json:"ticket_id"`
	EventID     uuid.UUID `json:"event_id"`
	Quantity    int       `json:"quantity"`
	CheckedInBy uuid.UUID `json:"checked_in_by"`
	UsedAt      time.Time `json:"used_at"`
}

func (e TicketCheckedIn_v1) GetHeader() EventHeader { return e.Header }

type TicketCancelled_v1 struct {
	Header EventHeader `json:"header"`

	TicketID uuid.UUID `json:"ticket_id"`
	EventID  uuid.UUID `json:"event_id"`
	UserID   uuid.UUID `json:"user_id"`
	Quantity int       `json:"quantity"`
	Reason   string    `json:"reason"`
}

func (e TicketCancelled_v1) GetHeader() EventHeader { return e.Header }

type RefundRequested_v1 struct {
	Header EventHeader `json:"header"`

	RefundID  uuid.UUID `json:"refund_id"`
	PaymentID uuid.UUID `json:"payment_id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
}

func (e RefundRequested_v1) GetHeader() EventHeader { return e.Header }

type RefundCompleted_v1 struct {
	Header EventHeader `json:"header"`

	RefundID  uuid.UUID        `json:"refund_id"`
	PaymentID uuid.UUID        `json:"payment_id"`
	UserID    uuid.UUID        `json:"user_id"`
	Amount    int64            `json:"amount"`
	Reference PaymentReference `json:"reference"`

	// EventID is set for ticket refunds.
	EventID *uuid.UUID `json:"event_id,omitempty"`
}

func (e RefundCompleted_v1) GetHeader() EventHeader { return e.Header }

type RefundFailed_v1 struct {
	Header EventHeader `json:"header"`

	RefundID  uuid.UUID `json:"refund_id"`
	PaymentID uuid.UUID `json:"payment_id"`
	UserID    uuid.UUID `json:"user_id"`
	Reason    string    `json:"reason"`
}

func (e RefundFailed_v1) GetHeader() EventHeader { return e.Header }
