package entities

import (
	"time"

	"github.com/google/uuid"
)

// EventSales is the organizer-facing projection of ticket sales for one event.
type EventSales struct {
	EventID uuid.UUID `json:"event_id"`

	TicketsSold      int `json:"tickets_sold"`
	TicketsCheckedIn int `json:"tickets_checked_in"`
	TicketsCancelled int `json:"tickets_cancelled"`

	GrossAmount    int64 `json:"gross_amount"`
	PlatformFee    int64 `json:"platform_fee"`
	NetAmount      int64 `json:"net_amount"`
	RefundedAmount int64 `json:"refunded_amount"`

	LastUpdate time.Time `json:"last_update"`
}

func (s *EventSales) ApplyTicketIssued(e TicketIssued_v1) {
	s.TicketsSold += e.Quantity
	s.GrossAmount += e.Price
	s.PlatformFee += e.PlatformFee
	s.NetAmount += e.NetAmount
}

func (s *EventSales) ApplyTicketCheckedIn(e TicketCheckedIn_v1) {
	s.TicketsCheckedIn += e.Quantity
}

func (s *EventSales) ApplyTicketCancelled(e TicketCancelled_v1) {
	s.TicketsCancelled += e.Quantity
}

func (s *EventSales) ApplyRefundCompleted(e RefundCompleted_v1) {
	s.RefundedAmount += e.Amount
}
