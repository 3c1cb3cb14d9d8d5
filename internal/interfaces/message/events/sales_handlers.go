package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

// SalesHandlers keep the per-event sales projection. Each event is applied once per header id,
// so redeliveries are harmless.
func (h *Handler) SalesHandlers() []cqrs.EventHandler {
	return []cqrs.EventHandler{
		cqrs.NewEventHandler(
			"event_sales.on_ticket_issued",
			func(ctx context.Context, e *entities.TicketIssued_v1) error {
				return h.sales.Apply(ctx, e.EventID, e.Header.ID, func(s *entities.EventSales) {
					s.ApplyTicketIssued(*e)
				})
			},
		),
		cqrs.NewEventHandler(
			"event_sales.on_ticket_checked_in",
			func(ctx context.Context, e *entities.TicketCheckedIn_v1) error {
				return h.sales.Apply(ctx, e.EventID, e.Header.ID, func(s *entities.EventSales) {
					s.ApplyTicketCheckedIn(*e)
				})
			},
		),
		cqrs.NewEventHandler(
			"event_sales.on_ticket_cancelled",
			func(ctx context.Context, e *entities.TicketCancelled_v1) error {
				return h.sales.Apply(ctx, e.EventID, e.Header.ID, func(s *entities.EventSales) {
					s.ApplyTicketCancelled(*e)
				})
			},
		),
		cqrs.NewEventHandler(
			"event_sales.on_refund_completed",
			func(ctx context.Context, e *entities.RefundCompleted_v1) error {
				if e.EventID == nil {
					// booking refunds do not touch ticket sales
					return nil
				}
				return h.sales.Apply(ctx, *e.EventID, e.Header.ID, func(s *entities.EventSales) {
					s.ApplyRefundCompleted(*e)
				})
			},
		),
	}
}
