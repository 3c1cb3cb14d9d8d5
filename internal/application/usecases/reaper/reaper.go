// Package reaper releases holds nobody completed: unanswered bookings, unpaid checkouts and
// pending tickets. It also moves published events along their calendar and reports payments
// and refunds that stopped halfway.
package reaper

import (
	"context"
	"errors"
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

type BookingsRepo interface {
	ListStalePending(ctx context.Context, createdBefore time.Time) ([]entities.Booking, error)
	ListUnpaidAccepted(ctx context.Context, respondedBefore time.Time) ([]entities.Booking, error)
	UpdateByID(ctx context.Context, id uuid.UUID, updateFn func(b entities.Booking) (entities.Booking, error)) (entities.Booking, error)
}

type TicketsRepo interface {
	ListStalePending(ctx context.Context, createdBefore time.Time) ([]entities.Ticket, error)
	UpdateByID(ctx context.Context, id uuid.UUID, updateFn func(t entities.Ticket) (entities.Ticket, error)) (entities.Ticket, error)
}

type PaymentsRepo interface {
	ListStalePending(ctx context.Context, updatedBefore time.Time) ([]entities.Payment, error)
	ListStaleProcessing(ctx context.Context, updatedBefore time.Time) ([]entities.Payment, error)
	ListByReference(ctx context.Context, ref entities.PaymentReference) ([]entities.Payment, error)
}

type EventsRepo interface {
	ListToAdvance(ctx context.Context, now time.Time) ([]entities.Event, error)
	UpdateByID(ctx context.Context, id uuid.UUID, updateFn func(e entities.Event) (entities.Event, error)) (entities.Event, error)
}

type RefundsRepo interface {
	ListByStatus(ctx context.Context, status entities.RefundStatus) ([]entities.Refund, error)
}

type PaymentFailer interface {
	Fail(ctx context.Context, paymentID uuid.UUID, reason string) (entities.Payment, error)
}

type Policy struct {
	BookingResponseTTL time.Duration
	BookingPaymentTTL  time.Duration
	TicketHoldTTL      time.Duration
	PaymentTTL         time.Duration
}

type Report struct {
	BookingsExpired int
	BookingsUnpaid  int
	TicketsExpired  int
	PaymentsFailed  int
	PaymentsStuck   int
	EventsAdvanced  int
	RefundsStuck    int
	Skipped         int
}

type Reaper struct {
	tx       TxManager
	bus      EventBus
	bookings BookingsRepo
	tickets  TicketsRepo
	payments PaymentsRepo
	events   EventsRepo
	refunds  RefundsRepo
	failer   PaymentFailer
	policy   Policy
}

func NewReaper(
	tx TxManager,
	bus EventBus,
	bookings BookingsRepo,
	tickets TicketsRepo,
	payments PaymentsRepo,
	events EventsRepo,
	refunds RefundsRepo,
	failer PaymentFailer,
	policy Policy,
) *Reaper {
	return &Reaper{
		tx:       tx,
		bus:      bus,
		bookings: bookings,
		tickets:  tickets,
		payments: payments,
		events:   events,
		refunds:  refunds,
		failer:   failer,
		policy:   policy,
	}
}

// Run reaps every interval until ctx is done.
func (r *Reaper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.Reap(ctx, time.Now()); err != nil {
				log.FromContext(ctx).WithError(err).Error("Reaper pass failed")
			}
		}
	}
}

// Reap runs one pass. Each row is handled in its own transaction; a row that fails is logged and
// skipped, so only listing errors abort the pass.
func (r *Reaper) Reap(ctx context.Context, now time.Time) (Report, error) {
	var report Report

	steps := []func(context.Context, time.Time, *Report) error{
		r.expirePendingBookings,
		r.cancelUnpaidBookings,
		r.expirePendingTickets,
		r.failStalePayments,
		r.reportStuckPayments,
		r.advanceEvents,
		r.reportStuckRefunds,
	}
	for _, step := range steps {
		if err := step(ctx, now, &report); err != nil {
			return report, err
		}
	}

	if report != (Report{}) {
		log.FromContext(ctx).
			WithField("bookings_expired", report.BookingsExpired).
			WithField("bookings_unpaid", report.BookingsUnpaid).
			WithField("tickets_expired", report.TicketsExpired).
			WithField("payments_failed", report.PaymentsFailed).
			WithField("payments_stuck", report.PaymentsStuck).
			WithField("events_advanced", report.EventsAdvanced).
			WithField("refunds_stuck", report.RefundsStuck).
			WithField("skipped", report.Skipped).
			Info("Reaper pass finished")
	}

	return report, nil
}

func (r *Reaper) expirePendingBookings(ctx context.Context, now time.Time, report *Report) error {
	cutoff := now.Add(-r.policy.BookingResponseTTL)
	stale, err := r.bookings.ListStalePending(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, b := range stale {
		err := r.cancelBooking(ctx, b.ID, "expired: no owner response", now, func(b entities.Booking) bool {
			return b.Status == entities.BookingStatusPending && b.CreatedAt.Before(cutoff)
		})
		if r.skip(ctx, err, "booking", b.ID) {
			report.Skipped++
			continue
		}
		report.BookingsExpired++
	}
	return nil
}

func (r *Reaper) cancelUnpaidBookings(ctx context.Context, now time.Time, report *Report) error {
	cutoff := now.Add(-r.policy.BookingPaymentTTL)
	unpaid, err := r.bookings.ListUnpaidAccepted(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, b := range unpaid {
		err := r.tx.Do(ctx, func(ctx context.Context) error {
			if err := r.failPendingPayments(ctx, entities.BookingReference(b.ID), "booking payment window expired"); err != nil {
				return err
			}
			return r.cancelBooking(ctx, b.ID, "expired: not paid in time", now, func(b entities.Booking) bool {
				return b.AwaitingPayment() && b.OwnerRespondedAt != nil && b.OwnerRespondedAt.Before(cutoff)
			})
		})
		if r.skip(ctx, err, "booking", b.ID) {
			report.Skipped++
			continue
		}
		report.BookingsUnpaid++
	}
	return nil
}

func (r *Reaper) cancelBooking(
	ctx context.Context,
	bookingID uuid.UUID,
	reason string,
	now time.Time,
	stillStale func(b entities.Booking) bool,
) error {
	return r.tx.Do(ctx, func(ctx context.Context) error {
		booking, err := r.bookings.UpdateByID(ctx, bookingID, func(b entities.Booking) (entities.Booking, error) {
			if !stillStale(b) {
				return entities.Booking{}, errNoLongerStale
			}
			if err := b.Cancel(reason, now); err != nil {
				return entities.Booking{}, err
			}
			return b, nil
		})
		if err != nil {
			return err
		}

		return r.bus.Publish(ctx, &entities.BookingCancelled_v1{
			Header:      idempotency.EventHeader(ctx),
			BookingID:   booking.ID,
			RequesterID: booking.RequesterID,
			Reason:      reason,
		})
	})
}

func (r *Reaper) expirePendingTickets(ctx context.Context, now time.Time, report *Report) error {
	cutoff := now.Add(-r.policy.TicketHoldTTL)
	stale, err := r.tickets.ListStalePending(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, t := range stale {
		err := r.tx.Do(ctx, func(ctx context.Context) error {
			if err := r.failPendingPayments(ctx, entities.TicketReference(t.ID), "ticket hold expired"); err != nil {
				return err
			}
			_, err := r.tickets.UpdateByID(ctx, t.ID, func(t entities.Ticket) (entities.Ticket, error) {
				if t.Status != entities.TicketStatusPending {
					return entities.Ticket{}, errNoLongerStale
				}
				if err := t.Expire(now); err != nil {
					return entities.Ticket{}, err
				}
				return t, nil
			})
			return err
		})
		if r.skip(ctx, err, "ticket", t.ID) {
			report.Skipped++
			continue
		}
		report.TicketsExpired++
	}
	return nil
}

// failPendingPayments fails the reference's open checkouts. A payment being verified right now
// keeps the reference alive until the next pass.
func (r *Reaper) failPendingPayments(ctx context.Context, ref entities.PaymentReference, reason string) error {
	payments, err := r.payments.ListByReference(ctx, ref)
	if err != nil {
		return err
	}

	for _, p := range payments {
		switch p.Status {
		case entities.PaymentStatusProcessing:
			return errNoLongerStale
		case entities.PaymentStatusPending:
			if _, err := r.failer.Fail(ctx, p.ID, reason); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Reaper) failStalePayments(ctx context.Context, now time.Time, report *Report) error {
	stale, err := r.payments.ListStalePending(ctx, now.Add(-r.policy.PaymentTTL))
	if err != nil {
		return err
	}

	for _, p := range stale {
		_, err := r.failer.Fail(ctx, p.ID, "checkout abandoned")
		if r.skip(ctx, err, "payment", p.ID) {
			report.Skipped++
			continue
		}
		report.PaymentsFailed++
	}
	return nil
}

// reportStuckPayments warns about verifications that claimed a payment and never stored the
// result. Their references stay on hold until the payment is resumed.
func (r *Reaper) reportStuckPayments(ctx context.Context, now time.Time, report *Report) error {
	stuck, err := r.payments.ListStaleProcessing(ctx, now.Add(-r.policy.PaymentTTL))
	if err != nil {
		return err
	}

	for _, p := range stuck {
		log.FromContext(ctx).
			WithField("payment_id", p.ID).
			WithField("reference", p.Reference.String()).
			WithField("since", p.UpdatedAt).
			Warn("Payment is still being verified, resume it with the reconcile tool")
	}
	report.PaymentsStuck = len(stuck)
	return nil
}

func (r *Reaper) advanceEvents(ctx context.Context, now time.Time, report *Report) error {
	events, err := r.events.ListToAdvance(ctx, now)
	if err != nil {
		return err
	}

	for _, e := range events {
		err := r.tx.Do(ctx, func(ctx context.Context) error {
			_, err := r.events.UpdateByID(ctx, e.ID, func(e entities.Event) (entities.Event, error) {
				if !e.Advance(now) {
					return entities.Event{}, errNoLongerStale
				}
				return e, nil
			})
			return err
		})
		if r.skip(ctx, err, "event", e.ID) {
			report.Skipped++
			continue
		}
		report.EventsAdvanced++
	}
	return nil
}

func (r *Reaper) reportStuckRefunds(ctx context.Context, _ time.Time, report *Report) error {
	stuck, err := r.refunds.ListByStatus(ctx, entities.RefundStatusProcessing)
	if err != nil {
		return err
	}

	for _, refund := range stuck {
		log.FromContext(ctx).
			WithField("refund_id", refund.ID).
			WithField("payment_id", refund.PaymentID).
			WithField("since", refund.UpdatedAt).
			Warn("Refund is still processing, resume it with the reconcile tool")
	}
	report.RefundsStuck = len(stuck)
	return nil
}

var errNoLongerStale = errors.New("row changed since it was listed")

// skip reports whether the row was left alone. Rows that moved on concurrently are not errors.
func (r *Reaper) skip(ctx context.Context, err error, entity string, id uuid.UUID) bool {
	if err == nil {
		return false
	}

	logger := log.FromContext(ctx).WithField(entity+"_id", id)
	if errors.Is(err, errNoLongerStale) || errors.Is(err, entities.ErrAlreadyProcessed) || errors.Is(err, entities.ErrInvalidState) {
		logger.WithError(err).Debug("Reaper skipped a row")
	} else {
		logger.WithError(err).Error("Reaper failed to handle a row")
	}
	return true
}
