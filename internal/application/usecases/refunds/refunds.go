package refunds

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
	Refund(ctx context.Context, paymentID string, amount int64, idempotencyKey string) (entities.GatewayRefund, error)
}

type PaymentsRepo interface {
	Get(ctx context.Context, id uuid.UUID) (entities.Payment, error)
	UpdateByID(ctx context.Context, id uuid.UUID, updateFn func(p entities.Payment) (entities.Payment, error)) (entities.Payment, error)
}

type RefundsRepo interface {
	Add(ctx context.Context, refund entities.Refund) error
	Get(ctx context.Context, id uuid.UUID) (entities.Refund, error)
	UpdateByID(ctx context.Context, id uuid.UUID, updateFn func(r entities.Refund) (entities.Refund, error)) (entities.Refund, error)
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]entities.Refund, error)
	ListByStatus(ctx context.Context, status entities.RefundStatus) ([]entities.Refund, error)
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
	ReleaseSeats(ctx context.Context, id uuid.UUID, quantity int) error
}

type Usecase struct {
	tx       TxManager
	bus      EventBus
	gateway  Gateway
	payments PaymentsRepo
	refunds  RefundsRepo
	bookings BookingsRepo
	tickets  TicketsRepo
	events   EventsRepo
}

func NewUsecase(
	tx TxManager,
	bus EventBus,
	gateway Gateway,
	payments PaymentsRepo,
	refunds RefundsRepo,
	bookings BookingsRepo,
	tickets TicketsRepo,
	events EventsRepo,
) *Usecase {
	return &Usecase{
		tx:       tx,
		bus:      bus,
		gateway:  gateway,
		payments: payments,
		refunds:  refunds,
		bookings: bookings,
		tickets:  tickets,
		events:   events,
	}
}

// RequestRefund opens a pending refund. A nil amount refunds whatever is left on the payment.
func (u *Usecase) RequestRefund(
	ctx context.Context,
	actor entities.Actor,
	paymentID uuid.UUID,
	reason string,
	amount *int64,
) (entities.Refund, error) {
	var refund entities.Refund

	err := u.tx.Do(ctx, func(ctx context.Context) error {
		payment, err := u.payments.Get(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment.UserID != actor.ID && !actor.IsAdmin() {
			return entities.Errorf(entities.ErrForbidden, "payment %s belongs to another user", paymentID)
		}

		refund, err = u.open(ctx, payment, actor.ID, reason, amount)
		return err
	})
	if err != nil {
		return entities.Refund{}, err
	}

	return refund, nil
}

// OpenFullRefund refunds the rest of a payment on behalf of another workflow.
// It joins the caller's transaction and returns nil when nothing is left to refund.
func (u *Usecase) OpenFullRefund(
	ctx context.Context,
	payment entities.Payment,
	requesterID uuid.UUID,
	reason string,
) (*entities.Refund, error) {
	var refund *entities.Refund

	err := u.tx.Do(ctx, func(ctx context.Context) error {
		refunded, err := u.refundedSoFar(ctx, payment.ID)
		if err != nil {
			return err
		}
		if refunded >= payment.Amount {
			return nil
		}

		r, err := u.open(ctx, payment, requesterID, reason, nil)
		if err != nil {
			return err
		}
		refund = &r
		return nil
	})

	return refund, err
}

func (u *Usecase) open(
	ctx context.Context,
	payment entities.Payment,
	requesterID uuid.UUID,
	reason string,
	amount *int64,
) (entities.Refund, error) {
	if err := u.lockReferenceForRefund(ctx, payment); err != nil {
		return entities.Refund{}, err
	}

	refunded, err := u.refundedSoFar(ctx, payment.ID)
	if err != nil {
		return entities.Refund{}, err
	}

	refund, err := entities.NewRefund(payment, requesterID, reason, amount, refunded, time.Now())
	if err != nil {
		return entities.Refund{}, err
	}
	if err := u.refunds.Add(ctx, refund); err != nil {
		return entities.Refund{}, fmt.Errorf("failed to add refund: %w", err)
	}

	log.FromContext(ctx).
		WithField("refund_id", refund.ID).
		WithField("payment_id", payment.ID).
		WithField("amount", refund.Amount).
		Info("Refund requested")

	return refund, u.bus.Publish(ctx, &entities.RefundRequested_v1{
		Header:    idempotency.EventHeader(ctx),
		RefundID:  refund.ID,
		PaymentID: payment.ID,
		UserID:    requesterID,
		Amount:    refund.Amount,
		Reason:    reason,
	})
}

// lockReferenceForRefund holds the reference row for the rest of the transaction, so a booking
// completion or a ticket check-in cannot commit alongside a refund of the same payment.
func (u *Usecase) lockReferenceForRefund(ctx context.Context, payment entities.Payment) error {
	switch payment.Reference.Kind {
	case entities.ReferenceBooking:
		_, err := u.bookings.UpdateByID(ctx, payment.Reference.ID, func(b entities.Booking) (entities.Booking, error) {
			if err := b.CheckRefundable(payment.ID); err != nil {
				return entities.Booking{}, err
			}
			return b, nil
		})
		return err
	case entities.ReferenceTicket:
		_, err := u.tickets.UpdateByID(ctx, payment.Reference.ID, func(t entities.Ticket) (entities.Ticket, error) {
			if err := t.CheckRefundable(); err != nil {
				return entities.Ticket{}, err
			}
			return t, nil
		})
		return err
	default:
		return entities.Errorf(entities.ErrInvalidState, "unknown payment reference kind %q", payment.Reference.Kind)
	}
}

// HasOpenRefund reports whether a refund of the payment is still on its way.
func (u *Usecase) HasOpenRefund(ctx context.Context, paymentID uuid.UUID) (bool, error) {
	existing, err := u.refunds.ListByPayment(ctx, paymentID)
	if err != nil {
		return false, fmt.Errorf("failed to list refunds of payment %s: %w", paymentID, err)
	}

	for _, r := range existing {
		if r.IsOpen() {
			return true, nil
		}
	}
	return false, nil
}

func (u *Usecase) refundedSoFar(ctx context.Context, paymentID uuid.UUID) (int64, error) {
	existing, err := u.refunds.ListByPayment(ctx, paymentID)
	if err != nil {
		return 0, fmt.Errorf("failed to list refunds of payment %s: %w", paymentID, err)
	}

	var total int64
	for _, r := range existing {
		if r.CountsAgainstPayment() {
			total += r.Amount
		}
	}
	return total, nil
}

func (u *Usecase) GetRefund(ctx context.Context, actor entities.Actor, id uuid.UUID) (entities.Refund, error) {
	refund, err := u.refunds.Get(ctx, id)
	if err != nil {
		return entities.Refund{}, err
	}
	if actor.IsAdmin() || refund.UserID == actor.ID {
		return refund, nil
	}

	payment, err := u.payments.Get(ctx, refund.PaymentID)
	if err != nil {
		return entities.Refund{}, err
	}
	if payment.UserID != actor.ID {
		return entities.Refund{}, entities.Errorf(entities.ErrForbidden, "refund %s belongs to another user", id)
	}
	return refund, nil
}

func (u *Usecase) ListByStatus(ctx context.Context, status entities.RefundStatus) ([]entities.Refund, error) {
	return u.refunds.ListByStatus(ctx, status)
}
