package refunds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	"github.com/yagnesh-3/Fira-sub001/internal/idempotency"
	"github.com/yagnesh-3/Fira-sub001/internal/log"
	"github.com/yagnesh-3/Fira-sub001/internal/observability"
)

// ReviewRefund decides a pending refund. Approval runs the refund saga:
// approved -> processing in one transaction, the gateway call with no transaction open,
// then completed (with the cascade) or failed in a second transaction.
func (u *Usecase) ReviewRefund(
	ctx context.Context,
	actor entities.Actor,
	refundID uuid.UUID,
	decision entities.RefundDecision,
	notes string,
) (entities.Refund, error) {
	if !actor.IsAdmin() {
		return entities.Refund{}, entities.Errorf(entities.ErrForbidden, "only admins review refunds")
	}

	var refund entities.Refund
	err := u.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		refund, err = u.refunds.UpdateByID(ctx, refundID, func(r entities.Refund) (entities.Refund, error) {
			now := time.Now()
			if err := r.Review(decision, actor.ID, notes, now); err != nil {
				return entities.Refund{}, err
			}
			if r.Status == entities.RefundStatusApproved {
				if err := r.StartProcessing(now); err != nil {
					return entities.Refund{}, err
				}
			}
			return r, nil
		})
		return err
	})
	if err != nil {
		return entities.Refund{}, err
	}

	log.FromContext(ctx).
		WithField("refund_id", refund.ID).
		WithField("decision", decision).
		Info("Refund reviewed")

	if refund.Status != entities.RefundStatusProcessing {
		return refund, nil
	}

	return u.process(ctx, refund)
}

// RetryRefund sends a failed refund to the gateway again.
func (u *Usecase) RetryRefund(ctx context.Context, refundID uuid.UUID) (entities.Refund, error) {
	var refund entities.Refund
	err := u.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		refund, err = u.refunds.UpdateByID(ctx, refundID, func(r entities.Refund) (entities.Refund, error) {
			if r.Status != entities.RefundStatusFailed {
				return entities.Refund{}, entities.Errorf(entities.ErrInvalidState, "refund %s is %s, not failed", r.ID, r.Status)
			}
			if err := r.StartProcessing(time.Now()); err != nil {
				return entities.Refund{}, err
			}
			return r, nil
		})
		if err != nil {
			return err
		}

		payment, err := u.payments.Get(ctx, refund.PaymentID)
		if err != nil {
			return err
		}
		return u.lockReferenceForRefund(ctx, payment)
	})
	if err != nil {
		return entities.Refund{}, err
	}

	return u.process(ctx, refund)
}

// ResumeRefund re-drives a refund left in processing, e.g. after a crash between the gateway call and
// the completing transaction. The refund id is the gateway idempotency key, so the money moves once.
func (u *Usecase) ResumeRefund(ctx context.Context, refundID uuid.UUID) (entities.Refund, error) {
	refund, err := u.refunds.Get(ctx, refundID)
	if err != nil {
		return entities.Refund{}, err
	}
	if refund.Status != entities.RefundStatusProcessing {
		return entities.Refund{}, entities.Errorf(entities.ErrInvalidState, "refund %s is %s, not processing", refund.ID, refund.Status)
	}

	return u.process(ctx, refund)
}

func (u *Usecase) process(ctx context.Context, refund entities.Refund) (_ entities.Refund, err error) {
	ctx, span := observability.StartSpan(ctx, "refunds.process",
		attribute.String("refund_id", refund.ID.String()),
		attribute.String("payment_id", refund.PaymentID.String()),
		attribute.Int64("amount", refund.Amount),
	)
	defer func() { observability.EndSpan(span, err) }()

	payment, err := u.payments.Get(ctx, refund.PaymentID)
	if err != nil {
		return entities.Refund{}, err
	}

	gatewayPaymentID := payment.GatewayTransactionID
	if gatewayPaymentID == "" {
		gatewayPaymentID = payment.GatewayOrderID
	}

	result, gwErr := u.gateway.Refund(ctx, gatewayPaymentID, refund.Amount, refund.ID.String())
	if gwErr != nil {
		return u.fail(ctx, refund, gwErr)
	}

	return u.complete(ctx, refund, result)
}

func (u *Usecase) fail(ctx context.Context, refund entities.Refund, gwErr error) (entities.Refund, error) {
	err := u.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		refund, err = u.refunds.UpdateByID(ctx, refund.ID, func(r entities.Refund) (entities.Refund, error) {
			if err := r.Fail(gwErr.Error(), time.Now()); err != nil {
				return entities.Refund{}, err
			}
			return r, nil
		})
		if err != nil {
			return err
		}

		return u.bus.Publish(ctx, &entities.RefundFailed_v1{
			Header:    idempotency.EventHeader(ctx),
			RefundID:  refund.ID,
			PaymentID: refund.PaymentID,
			UserID:    refund.UserID,
			Reason:    refund.FailureReason,
		})
	})
	if err != nil {
		return entities.Refund{}, fmt.Errorf("failed to record refund failure: %w", errors.Join(err, gwErr))
	}

	observability.CountRefundFailed()
	log.FromContext(ctx).
		WithField("refund_id", refund.ID).
		WithField("payment_id", refund.PaymentID).
		WithError(gwErr).
		Warn("Refund failed at the gateway, waiting for manual reconciliation")

	return refund, entities.Errorf(entities.ErrGatewayFailure, "refund %s: %v", refund.ID, gwErr)
}

func (u *Usecase) complete(ctx context.Context, refund entities.Refund, result entities.GatewayRefund) (entities.Refund, error) {
	err := u.tx.Do(ctx, func(ctx context.Context) error {
		now := time.Now()

		var err error
		refund, err = u.refunds.UpdateByID(ctx, refund.ID, func(r entities.Refund) (entities.Refund, error) {
			if err := r.Complete(result.ID, now); err != nil {
				return entities.Refund{}, err
			}
			return r, nil
		})
		if err != nil {
			return err
		}

		refunded, err := u.completedAmount(ctx, refund.PaymentID)
		if err != nil {
			return err
		}

		payment, err := u.payments.Get(ctx, refund.PaymentID)
		if err != nil {
			return err
		}

		// partial refunds leave the payment and its reference alone until the whole amount is back
		var eventID *uuid.UUID
		if refunded >= payment.Amount {
			payment, err = u.payments.UpdateByID(ctx, payment.ID, func(p entities.Payment) (entities.Payment, error) {
				if err := p.MarkRefunded(now); err != nil {
					return entities.Payment{}, err
				}
				return p, nil
			})
			if err != nil {
				return err
			}

			eventID, err = u.cascade(ctx, payment, now)
			if err != nil {
				return fmt.Errorf("failed to cascade refund %s to %s: %w", refund.ID, payment.Reference, err)
			}
		}

		return u.bus.Publish(ctx, &entities.RefundCompleted_v1{
			Header:    idempotency.EventHeader(ctx),
			RefundID:  refund.ID,
			PaymentID: payment.ID,
			UserID:    refund.UserID,
			Amount:    refund.Amount,
			Reference: payment.Reference,
			EventID:   eventID,
		})
	})
	if err != nil {
		return entities.Refund{}, err
	}

	log.FromContext(ctx).
		WithField("refund_id", refund.ID).
		WithField("gateway_refund_id", result.ID).
		Info("Refund completed")

	return refund, nil
}

func (u *Usecase) completedAmount(ctx context.Context, paymentID uuid.UUID) (int64, error) {
	all, err := u.refunds.ListByPayment(ctx, paymentID)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, r := range all {
		if r.Status == entities.RefundStatusCompleted {
			total += r.Amount
		}
	}
	return total, nil
}

// cascade unwinds the payment's reference. It returns the event id for ticket references.
func (u *Usecase) cascade(ctx context.Context, payment entities.Payment, now time.Time) (*uuid.UUID, error) {
	switch payment.Reference.Kind {
	case entities.ReferenceBooking:
		_, err := u.bookings.UpdateByID(ctx, payment.Reference.ID, func(b entities.Booking) (entities.Booking, error) {
			if b.PaymentRef != nil && *b.PaymentRef == payment.ID {
				b.MarkRefunded(now)
			}
			return b, nil
		})
		return nil, err

	case entities.ReferenceTicket:
		ticket, err := u.tickets.Get(ctx, payment.Reference.ID)
		if err != nil {
			return nil, err
		}
		eventID := ticket.EventID

		switch ticket.Status {
		case entities.TicketStatusActive, entities.TicketStatusPending:
			wasActive := ticket.Status == entities.TicketStatusActive

			ticket, err = u.tickets.UpdateByID(ctx, ticket.ID, func(t entities.Ticket) (entities.Ticket, error) {
				if err := t.Cancel("refunded", now); err != nil {
					return entities.Ticket{}, err
				}
				return t, nil
			})
			if err != nil {
				return nil, err
			}

			if wasActive {
				if err := u.events.ReleaseSeats(ctx, ticket.EventID, ticket.Quantity); err != nil {
					return nil, err
				}
				err = u.bus.Publish(ctx, &entities.TicketCancelled_v1{
					Header:   idempotency.EventHeader(ctx),
					TicketID: ticket.ID,
					EventID:  ticket.EventID,
					UserID:   ticket.UserID,
					Quantity: ticket.Quantity,
					Reason:   ticket.CancelReason,
				})
				if err != nil {
					return nil, err
				}
			}
		}
		return &eventID, nil

	default:
		return nil, entities.Errorf(entities.ErrInvalidState, "unknown payment reference kind %q", payment.Reference.Kind)
	}
}
