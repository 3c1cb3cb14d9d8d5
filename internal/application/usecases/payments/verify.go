package payments

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

type VerifyParams struct {
	OrderID   string
	PaymentID string
	Signature string
}

// Verify confirms a checkout with the gateway and cascades the result to the payment's reference.
//
// The payment is first claimed (pending -> processing) under a row lock, so a duplicated callback
// gets AlreadyProcessed. The gateway is called with no transaction open. A gateway error returns
// the claim; a rejected signature fails the payment; a confirmed one succeeds it and, in the same
// transaction, marks the booking paid or activates the ticket.
func (o *Orchestrator) Verify(ctx context.Context, params VerifyParams) (_ entities.Payment, err error) {
	ctx, span := observability.StartSpan(ctx, "payments.Verify", attribute.String("order_id", params.OrderID))
	defer func() { observability.EndSpan(span, err) }()

	payment, err := o.payments.GetByOrderID(ctx, params.OrderID)
	if err != nil {
		return entities.Payment{}, err
	}

	err = o.tx.Do(ctx, func(ctx context.Context) error {
		payment, err = o.payments.UpdateByID(ctx, payment.ID, func(p entities.Payment) (entities.Payment, error) {
			if err := p.ClaimForVerification(time.Now()); err != nil {
				return entities.Payment{}, err
			}
			if err := p.RecordCallback(params.PaymentID, params.Signature); err != nil {
				return entities.Payment{}, err
			}
			return p, nil
		})
		return err
	})
	if err != nil {
		if errors.Is(err, entities.ErrAlreadyProcessed) {
			observability.CountPaymentVerified("duplicate")
		}
		return entities.Payment{}, err
	}

	ok, gwErr := o.gateway.Verify(ctx, params.OrderID, params.PaymentID, params.Signature)
	if gwErr != nil {
		return entities.Payment{}, o.releaseClaim(ctx, payment, gwErr)
	}
	if !ok {
		return o.reject(ctx, payment)
	}

	return o.succeed(ctx, payment, params.PaymentID)
}

// ResumePayment re-drives a verification that claimed the payment but never stored a result,
// replaying the recorded gateway callback. A gateway error leaves the payment in processing.
func (o *Orchestrator) ResumePayment(ctx context.Context, paymentID uuid.UUID) (_ entities.Payment, err error) {
	ctx, span := observability.StartSpan(ctx, "payments.ResumePayment", attribute.String("payment_id", paymentID.String()))
	defer func() { observability.EndSpan(span, err) }()

	payment, err := o.payments.Get(ctx, paymentID)
	if err != nil {
		return entities.Payment{}, err
	}
	if payment.Status != entities.PaymentStatusProcessing {
		return entities.Payment{}, entities.Errorf(entities.ErrInvalidState, "payment %s is %s, not processing", payment.ID, payment.Status)
	}
	if !payment.HasCallback() {
		return entities.Payment{}, entities.Errorf(entities.ErrInvalidState, "payment %s has no recorded gateway callback", payment.ID)
	}

	ok, gwErr := o.gateway.Verify(ctx, payment.GatewayOrderID, payment.GatewayTransactionID, payment.GatewaySignature)
	if gwErr != nil {
		observability.CountPaymentVerified("gateway_error")
		return entities.Payment{}, entities.Errorf(entities.ErrGatewayFailure, "resume payment %s: %v", payment.ID, gwErr)
	}

	log.FromContext(ctx).WithField("payment_id", payment.ID).WithField("confirmed", ok).Info("Resuming payment verification")

	if !ok {
		return o.reject(ctx, payment)
	}
	return o.succeed(ctx, payment, payment.GatewayTransactionID)
}

func (o *Orchestrator) releaseClaim(ctx context.Context, payment entities.Payment, gwErr error) error {
	err := o.tx.Do(ctx, func(ctx context.Context) error {
		_, err := o.payments.UpdateByID(ctx, payment.ID, func(p entities.Payment) (entities.Payment, error) {
			if err := p.ReleaseClaim(time.Now()); err != nil {
				return entities.Payment{}, err
			}
			return p, nil
		})
		return err
	})
	if err != nil {
		log.FromContext(ctx).WithError(err).WithField("payment_id", payment.ID).Error("Failed to release verification claim")
	}

	observability.CountPaymentVerified("gateway_error")
	return entities.Errorf(entities.ErrGatewayFailure, "verify payment %s: %v", payment.ID, gwErr)
}

func (o *Orchestrator) reject(ctx context.Context, payment entities.Payment) (entities.Payment, error) {
	err := o.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		payment, err = o.payments.UpdateByID(ctx, payment.ID, func(p entities.Payment) (entities.Payment, error) {
			if err := p.Fail(time.Now()); err != nil {
				return entities.Payment{}, err
			}
			return p, nil
		})
		if err != nil {
			return err
		}

		return o.bus.Publish(ctx, &entities.PaymentFailed_v1{
			Header:    idempotency.EventHeader(ctx),
			PaymentID: payment.ID,
			UserID:    payment.UserID,
			Reference: payment.Reference,
			Reason:    "gateway rejected the payment signature",
		})
	})
	if err != nil {
		return entities.Payment{}, err
	}

	observability.CountPaymentVerified("failed")
	log.FromContext(ctx).WithField("payment_id", payment.ID).Info("Payment rejected by the gateway")

	return payment, entities.Errorf(entities.ErrGatewayFailure, "gateway rejected payment %s", payment.ID)
}

func (o *Orchestrator) succeed(ctx context.Context, payment entities.Payment, transactionID string) (entities.Payment, error) {
	var activated bool

	err := o.tx.Do(ctx, func(ctx context.Context) error {
		now := time.Now()

		var err error
		payment, err = o.payments.UpdateByID(ctx, payment.ID, func(p entities.Payment) (entities.Payment, error) {
			if err := p.Succeed(transactionID, now); err != nil {
				return entities.Payment{}, err
			}
			return p, nil
		})
		if err != nil {
			return err
		}

		activated, err = o.cascade(ctx, payment, now)
		if err != nil {
			return fmt.Errorf("failed to cascade payment %s to %s: %w", payment.ID, payment.Reference, err)
		}

		if !activated {
			_, err := o.refunds.OpenFullRefund(ctx, payment, payment.UserID, "late payment: "+payment.Reference.String()+" no longer awaits payment")
			if err != nil {
				return fmt.Errorf("failed to open refund for late payment %s: %w", payment.ID, err)
			}
		}

		return o.bus.Publish(ctx, &entities.PaymentSucceeded_v1{
			Header:      idempotency.EventHeader(ctx),
			PaymentID:   payment.ID,
			UserID:      payment.UserID,
			Reference:   payment.Reference,
			Amount:      payment.Amount,
			PlatformFee: payment.PlatformFee,
			NetAmount:   payment.NetAmount,
			Currency:    payment.Currency,
			PaidAt:      *payment.PaidAt,
			Activated:   activated,
		})
	})
	if err != nil {
		return entities.Payment{}, err
	}

	result := "success"
	if !activated {
		result = "late"
	}
	observability.CountPaymentVerified(result)

	log.FromContext(ctx).
		WithField("payment_id", payment.ID).
		WithField("reference", payment.Reference.String()).
		WithField("activated", activated).
		Info("Payment verified")

	return payment, nil
}

// cascade marks the reference paid. It reports false when the reference no longer waits for
// this payment, in which case the payment is kept and refunded.
func (o *Orchestrator) cascade(ctx context.Context, payment entities.Payment, now time.Time) (bool, error) {
	switch payment.Reference.Kind {
	case entities.ReferenceBooking:
		return o.cascadeBooking(ctx, payment, now)
	case entities.ReferenceTicket:
		return o.cascadeTicket(ctx, payment, now)
	default:
		return false, entities.Errorf(entities.ErrInvalidState, "unknown payment reference kind %q", payment.Reference.Kind)
	}
}

func (o *Orchestrator) cascadeBooking(ctx context.Context, payment entities.Payment, now time.Time) (bool, error) {
	booking, err := o.bookings.Get(ctx, payment.Reference.ID)
	if err != nil {
		return false, err
	}
	if !booking.AwaitingPayment() || booking.TotalAmount != payment.Amount {
		return false, nil
	}

	_, err = o.bookings.UpdateByID(ctx, booking.ID, func(b entities.Booking) (entities.Booking, error) {
		if err := b.MarkPaid(payment.ID, now); err != nil {
			return entities.Booking{}, err
		}
		return b, nil
	})
	return err == nil, err
}

func (o *Orchestrator) cascadeTicket(ctx context.Context, payment entities.Payment, now time.Time) (bool, error) {
	ticket, err := o.tickets.Get(ctx, payment.Reference.ID)
	if err != nil {
		return false, err
	}
	if !ticket.AwaitingPayment() || ticket.Price != payment.Amount {
		_, err := o.tickets.UpdateByID(ctx, ticket.ID, func(t entities.Ticket) (entities.Ticket, error) {
			if t.PaymentRef == nil {
				t.AttachPayment(payment.ID, now)
			}
			return t, nil
		})
		return false, err
	}

	_, err = o.events.ReserveSeats(ctx, ticket.EventID, ticket.Quantity)
	if err != nil {
		kind := entities.KindOf(err)
		if kind != entities.ErrConflict && kind != entities.ErrInvalidState {
			return false, err
		}

		observability.CountConflict("verify_payment", err)
		log.FromContext(ctx).
			WithField("ticket", ticket.Code).
			WithField("reason", err.Error()).
			Info("Paid ticket cannot be seated")

		_, err = o.tickets.UpdateByID(ctx, ticket.ID, func(t entities.Ticket) (entities.Ticket, error) {
			t.AttachPayment(payment.ID, now)
			if err := t.Cancel("no seats left when payment arrived", now); err != nil {
				return entities.Ticket{}, err
			}
			return t, nil
		})
		return false, err
	}

	ticket, err = o.tickets.UpdateByID(ctx, ticket.ID, func(t entities.Ticket) (entities.Ticket, error) {
		if err := t.Activate(payment.ID, now); err != nil {
			return entities.Ticket{}, err
		}
		return t, nil
	})
	if err != nil {
		return false, err
	}

	err = o.bus.Publish(ctx, &entities.TicketIssued_v1{
		Header:      idempotency.EventHeader(ctx),
		TicketID:    ticket.ID,
		TicketCode:  ticket.Code,
		EventID:     ticket.EventID,
		UserID:      ticket.UserID,
		Quantity:    ticket.Quantity,
		Price:       ticket.Price,
		PlatformFee: payment.PlatformFee,
		NetAmount:   payment.NetAmount,
	})
	return err == nil, err
}
