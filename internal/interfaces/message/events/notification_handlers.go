package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/google/uuid"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	"github.com/yagnesh-3/Fira-sub001/internal/infrastructure/notify"
)

func (h *Handler) notify(ctx context.Context, header entities.EventHeader, userID uuid.UUID, kind, subject string, payload any) error {
	err := h.notifier.Notify(ctx, notify.Notification{
		ID:        header.ID,
		UserID:    userID,
		Kind:      kind,
		Subject:   subject,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to send %s notification: %w", kind, err)
	}
	return nil
}

// NotificationHandlers forward user-facing events to the notification service.
func (h *Handler) NotificationHandlers() []cqrs.EventHandler {
	return []cqrs.EventHandler{
		cqrs.NewEventHandler(
			"notifications.on_booking_responded",
			func(ctx context.Context, e *entities.BookingResponded_v1) error {
				subject := "Your booking was accepted"
				if e.Decision == entities.BookingDecisionReject {
					subject = "Your booking was rejected"
				}
				return h.notify(ctx, e.Header, e.RequesterID, "booking.responded", subject, e)
			},
		),
		cqrs.NewEventHandler(
			"notifications.on_booking_cancelled",
			func(ctx context.Context, e *entities.BookingCancelled_v1) error {
				return h.notify(ctx, e.Header, e.RequesterID, "booking.cancelled", "Your booking was cancelled", e)
			},
		),
		cqrs.NewEventHandler(
			"notifications.on_event_approval_decided",
			func(ctx context.Context, e *entities.EventApprovalDecided_v1) error {
				subject := fmt.Sprintf("The %s review of your event: %s", e.Stage, e.Decision)
				return h.notify(ctx, e.Header, e.OrganizerID, "event.approval_decided", subject, e)
			},
		),
		cqrs.NewEventHandler(
			"notifications.on_payment_succeeded",
			func(ctx context.Context, e *entities.PaymentSucceeded_v1) error {
				subject := "Payment received"
				if !e.Activated {
					subject = "Payment received too late, a refund was opened"
				}
				return h.notify(ctx, e.Header, e.UserID, "payment.succeeded", subject, e)
			},
		),
		cqrs.NewEventHandler(
			"notifications.on_payment_failed",
			func(ctx context.Context, e *entities.PaymentFailed_v1) error {
				return h.notify(ctx, e.Header, e.UserID, "payment.failed", "Payment failed", e)
			},
		),
		cqrs.NewEventHandler(
			"notifications.on_ticket_issued",
			func(ctx context.Context, e *entities.TicketIssued_v1) error {
				return h.notify(ctx, e.Header, e.UserID, "ticket.issued", "Your ticket "+e.TicketCode, e)
			},
		),
		cqrs.NewEventHandler(
			"notifications.on_refund_completed",
			func(ctx context.Context, e *entities.RefundCompleted_v1) error {
				return h.notify(ctx, e.Header, e.UserID, "refund.completed", "Your refund was processed", e)
			},
		),
		cqrs.NewEventHandler(
			"notifications.on_refund_failed",
			func(ctx context.Context, e *entities.RefundFailed_v1) error {
				return h.notify(ctx, e.Header, e.UserID, "refund.failed", "Your refund is delayed", e)
			},
		),
	}
}
