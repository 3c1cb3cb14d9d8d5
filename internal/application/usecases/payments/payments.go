package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	"github.com/yagnesh-3/Fira-sub001/internal/idempotency"
	"github.com/yagnesh-3/Fira-sub001/internal/log"
)

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventBus interface {
	Publish(ctx context.Context, event any) error
}

type Gateway interface {
	Initiate(ctx context.Context, amount int64, currency, referenceID string) (entities.GatewayOrder, error)
	Verify(ctx context.Context, orderID, paymentID, signature string) (bool, error)
}

type PaymentsRepo interface {
	Add(ctx context.Context, p entities.Payment) error
	Get(ctx context.Context, id uuid.UUID) (entities.Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (entities.Payment, error)
	UpdateByID(ctx context.Context, id uuid.UUID, updateFn func(p entities.Payment) (entities.Payment, error)) (entities.Payment, error)
	ListByReference(ctx context.Context, ref entities.PaymentReference) ([]entities.Payment, error)
	ListStaleProcessing(ctx context.Context, updatedBefore time.Time) ([]entities.Payment, error)
}

type BookingsRepo interface {
	Get(ctx context.Context, id uuid.UUID) (entities.Booking, error)
	UpdateByID(ctx context.Context, id uuid.UUID, updateFn func(b entities.Booking) (entities.Booking, error)) (entities.Booking, error)
}

type TicketsRepo interface {
	Get(ctx context.Context, id uuid.UUID) (entities.Ticket, error)
	UpdateByID(ctx context.Context, id uuid.UUID, updateFn func(t entities.Ticket) (entities.Ticket, error)) (entities.Ticket, error)
}

type EventsRepo interface {
	ReserveSeats(ctx context.Context, id uuid.UUID, quantity int) (entities.Event, error)
}

type RefundOpener interface {
	OpenFullRefund(ctx context.Context, payment entities.Payment, requesterID uuid.UUID, reason string) (*entities.Refund, error)
}

// Orchestrator is the only writer of paid bookings and activated priced tickets.
type Orchestrator struct {
	tx       TxManager
	bus      EventBus
	gateway  Gateway
	payments PaymentsRepo
	bookings BookingsRepo
	tickets  TicketsRepo
	events   EventsRepo
	refunds  RefundOpener

	feePercentage float64
	currency      string
}

func NewOrchestrator(
	tx TxManager,
	bus EventBus,
	gateway Gateway,
	payments PaymentsRepo,
	bookings BookingsRepo,
	tickets TicketsRepo,
	events EventsRepo,
	refunds RefundOpener,
	feePercentage float64,
	currency string,
) (*Orchestrator, error) {
	if err := entities.ValidateFeePercentage(feePercentage); err != nil {
		return nil, err
	}
	if currency == "" {
		return nil, fmt.Errorf("currency must be set")
	}

	return &Orchestrator{
		tx:            tx,
		bus:           bus,
		gateway:       gateway,
		payments:      payments,
		bookings:      bookings,
		tickets:       tickets,
		events:        events,
		refunds:       refunds,
		feePercentage: feePercentage,
		currency:      currency,
	}, nil
}

// Initiate opens a checkout for ref. A pending checkout for the same reference and amount is reused.
func (o *Orchestrator) Initiate(
	ctx context.Context,
	ref entities.PaymentReference,
	amount int64,
	userID uuid.UUID,
) (entities.Payment, error) {
	if amount <= 0 {
		return entities.Payment{}, entities.ErrInvalidAmount
	}

	var (
		payment entities.Payment
		reused  bool
	)
	err := o.tx.Do(ctx, func(ctx context.Context) error {
		existing, err := o.payments.ListByReference(ctx, ref)
		if err != nil {
			return fmt.Errorf("failed to list payments of %s: %w", ref, err)
		}
		for _, p := range existing {
			if p.Status == entities.PaymentStatusPending && p.Amount == amount && p.UserID == userID && p.GatewayOrderID != "" {
				payment, reused = p, true
				return nil
			}
		}

		payment, err = entities.NewPayment(userID, ref, amount, o.currency, o.feePercentage, time.Now())
		if err != nil {
			return err
		}
		return o.payments.Add(ctx, payment)
	})
	if err != nil {
		return entities.Payment{}, err
	}
	if reused {
		log.FromContext(ctx).WithField("payment_id", payment.ID).Info("Reusing pending checkout")
		return payment, nil
	}

	order, gwErr := o.gateway.Initiate(ctx, amount, o.currency, ref.ID.String())
	if gwErr != nil {
		if _, err := o.fail(ctx, payment.ID, "gateway initiate failed: "+gwErr.Error()); err != nil {
			log.FromContext(ctx).WithError(err).Error("Failed to mark payment failed")
		}
		return entities.Payment{}, entities.Errorf(entities.ErrGatewayFailure, "initiate payment %s: %v", payment.ID, gwErr)
	}

	err = o.tx.Do(ctx, func(ctx context.Context) error {
		payment, err = o.payments.UpdateByID(ctx, payment.ID, func(p entities.Payment) (entities.Payment, error) {
			p.GatewayOrderID = order.ID
			p.UpdatedAt = time.Now().UTC()
			return p, nil
		})
		if err != nil {
			return err
		}

		return o.bus.Publish(ctx, &entities.PaymentInitiated_v1{
			Header:         idempotency.EventHeader(ctx),
			PaymentID:      payment.ID,
			UserID:         payment.UserID,
			Reference:      payment.Reference,
			Amount:         payment.Amount,
			GatewayOrderID: payment.GatewayOrderID,
		})
	})
	if err != nil {
		return entities.Payment{}, err
	}

	log.FromContext(ctx).
		WithField("payment_id", payment.ID).
		WithField("reference", payment.Reference.String()).
		WithField("gateway_order_id", order.ID).
		Info("Payment initiated")

	return payment, nil
}

// InitiateForTicket starts the checkout of a pending priced ticket.
func (o *Orchestrator) InitiateForTicket(ctx context.Context, ticketID, userID uuid.UUID) (entities.Payment, error) {
	ticket, err := o.tickets.Get(ctx, ticketID)
	if err != nil {
		return entities.Payment{}, err
	}
	if ticket.UserID != userID {
		return entities.Payment{}, entities.Errorf(entities.ErrForbidden, "ticket %s belongs to another user", ticket.Code)
	}
	if !ticket.AwaitingPayment() {
		return entities.Payment{}, entities.Errorf(entities.ErrInvalidState, "ticket %s is %s, not awaiting payment", ticket.Code, ticket.Status)
	}

	return o.Initiate(ctx, entities.TicketReference(ticket.ID), ticket.Price, userID)
}

func (o *Orchestrator) GetPayment(ctx context.Context, actor entities.Actor, id uuid.UUID) (entities.Payment, error) {
	p, err := o.payments.Get(ctx, id)
	if err != nil {
		return entities.Payment{}, err
	}
	if p.UserID != actor.ID && !actor.IsAdmin() {
		return entities.Payment{}, entities.Errorf(entities.ErrForbidden, "payment %s belongs to another user", id)
	}
	return p, nil
}

// ListStuck lists payments that have been in processing since before updatedBefore.
func (o *Orchestrator) ListStuck(ctx context.Context, updatedBefore time.Time) ([]entities.Payment, error) {
	return o.payments.ListStaleProcessing(ctx, updatedBefore)
}

// Fail moves a pending payment to failed. The reaper uses it for abandoned checkouts;
// a payment already claimed by verify is left alone.
func (o *Orchestrator) Fail(ctx context.Context, paymentID uuid.UUID, reason string) (entities.Payment, error) {
	return o.fail(ctx, paymentID, reason)
}

func (o *Orchestrator) fail(ctx context.Context, paymentID uuid.UUID, reason string) (entities.Payment, error) {
	var payment entities.Payment
	err := o.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		payment, err = o.payments.UpdateByID(ctx, paymentID, func(p entities.Payment) (entities.Payment, error) {
			if p.Status != entities.PaymentStatusPending {
				return entities.Payment{}, entities.Errorf(entities.ErrAlreadyProcessed, "payment %s is %s", p.ID, p.Status)
			}
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
			Reason:    reason,
		})
	})

	return payment, err
}
