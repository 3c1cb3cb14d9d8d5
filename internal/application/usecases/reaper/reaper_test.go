package reaper_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/reaper"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/tickets"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/usecasetest"
	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

func TestReap_NothingToDo(t *testing.T) {
	w := usecasetest.NewWorld(t)

	report, err := w.Reaper.Reap(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, reaper.Report{}, report)
}

func TestReap_UnansweredBooking(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	requester := usecasetest.User()
	venue := w.Venue(t, usecasetest.Owner(), 100, 5000)

	b, err := w.Book(t, requester, venue, 10, 12)
	require.NoError(t, err)

	report, err := w.Reaper.Reap(ctx, time.Now().Add(usecasetest.Policy.BookingResponseTTL/2))
	require.NoError(t, err)
	assert.Zero(t, report.BookingsExpired)

	report, err = w.Reaper.Reap(ctx, time.Now().Add(usecasetest.Policy.BookingResponseTTL+time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, report.BookingsExpired)

	b, err = w.Bookings.GetBooking(ctx, requester, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCancelled, b.Status)
	assert.Contains(t, b.CancellationReason, "no owner response")

	cancelled := usecasetest.OfType[*entities.BookingCancelled_v1](w.Recorder)
	require.Len(t, cancelled, 1)
	assert.Equal(t, requester.ID, cancelled[0].RequesterID)
}

func TestReap_UnpaidAcceptedBooking(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	owner, requester := usecasetest.Owner(), usecasetest.User()
	venue := w.Venue(t, owner, 100, 5000)

	b, err := w.Book(t, requester, venue, 10, 12)
	require.NoError(t, err)
	_, err = w.Bookings.Respond(ctx, b.ID, owner.ID, entities.BookingDecisionAccept, "")
	require.NoError(t, err)
	payment, err := w.Bookings.InitiatePayment(ctx, b.ID, requester.ID)
	require.NoError(t, err)

	report, err := w.Reaper.Reap(ctx, time.Now().Add(usecasetest.Policy.BookingPaymentTTL+time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, report.BookingsUnpaid)

	b, err = w.Bookings.GetBooking(ctx, requester, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCancelled, b.Status)

	payment, err = w.Store.Payments().Get(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentStatusFailed, payment.Status)

	_, err = w.Book(t, usecasetest.User(), venue, 10, 12)
	assert.NoError(t, err, "the window is free again")
}

func TestReap_PendingTicketHold(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	holder := usecasetest.User()
	event := w.PublishedEvent(t, usecasetest.User(), usecasetest.EventOptions{TicketType: entities.TicketTypePaid, TicketPrice: 500})

	result, err := w.Tickets.Purchase(ctx, holder.ID, tickets.PurchaseParams{EventID: event.ID, Quantity: 1})
	require.NoError(t, err)
	payment, err := w.Payments.InitiateForTicket(ctx, result.Ticket.ID, holder.ID)
	require.NoError(t, err)

	report, err := w.Reaper.Reap(ctx, time.Now().Add(usecasetest.Policy.TicketHoldTTL+time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, report.TicketsExpired)

	ticket, err := w.Store.Tickets().Get(ctx, result.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TicketStatusExpired, ticket.Status)

	_, err = w.Pay(ctx, payment)
	assert.ErrorIs(t, err, entities.ErrAlreadyProcessed, "the abandoned checkout was failed")
}

func TestReap_TicketBeingVerifiedIsKept(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	holder := usecasetest.User()
	event := w.PublishedEvent(t, usecasetest.User(), usecasetest.EventOptions{TicketType: entities.TicketTypePaid, TicketPrice: 500})

	result, err := w.Tickets.Purchase(ctx, holder.ID, tickets.PurchaseParams{EventID: event.ID, Quantity: 1})
	require.NoError(t, err)
	payment, err := w.Payments.InitiateForTicket(ctx, result.Ticket.ID, holder.ID)
	require.NoError(t, err)

	_, err = w.Store.Payments().UpdateByID(ctx, payment.ID, func(p entities.Payment) (entities.Payment, error) {
		return p, p.ClaimForVerification(time.Now())
	})
	require.NoError(t, err)

	report, err := w.Reaper.Reap(ctx, time.Now().Add(usecasetest.Policy.TicketHoldTTL+time.Minute))
	require.NoError(t, err)
	assert.Zero(t, report.TicketsExpired)
	assert.Equal(t, 1, report.Skipped)

	ticket, err := w.Store.Tickets().Get(ctx, result.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TicketStatusPending, ticket.Status)
}

func TestReap_ReportsStuckPayments(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	holder := usecasetest.User()
	event := w.PublishedEvent(t, usecasetest.User(), usecasetest.EventOptions{TicketType: entities.TicketTypePaid, TicketPrice: 500})

	result, err := w.Tickets.Purchase(ctx, holder.ID, tickets.PurchaseParams{EventID: event.ID, Quantity: 1})
	require.NoError(t, err)
	payment, err := w.Payments.InitiateForTicket(ctx, result.Ticket.ID, holder.ID)
	require.NoError(t, err)

	_, err = w.Store.Payments().UpdateByID(ctx, payment.ID, func(p entities.Payment) (entities.Payment, error) {
		if err := p.ClaimForVerification(time.Now()); err != nil {
			return entities.Payment{}, err
		}
		return p, p.RecordCallback("pay_1", w.Gateway.Sign(p.GatewayOrderID, "pay_1"))
	})
	require.NoError(t, err)

	report, err := w.Reaper.Reap(ctx, time.Now().Add(usecasetest.Policy.PaymentTTL/2))
	require.NoError(t, err)
	assert.Zero(t, report.PaymentsStuck)

	report, err = w.Reaper.Reap(ctx, time.Now().Add(usecasetest.Policy.PaymentTTL+time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, report.PaymentsStuck)
	assert.Zero(t, report.PaymentsFailed)

	stored, err := w.Store.Payments().Get(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentStatusProcessing, stored.Status)

	_, err = w.Payments.ResumePayment(ctx, payment.ID)
	require.NoError(t, err)

	report, err = w.Reaper.Reap(ctx, time.Now().Add(usecasetest.Policy.PaymentTTL+time.Minute))
	require.NoError(t, err)
	assert.Zero(t, report.PaymentsStuck)

	ticket, err := w.Store.Tickets().Get(ctx, result.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TicketStatusActive, ticket.Status)
}

func TestReap_AbandonedCheckout(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	owner, requester := usecasetest.Owner(), usecasetest.User()
	venue := w.Venue(t, owner, 100, 5000)

	b, err := w.Book(t, requester, venue, 10, 12)
	require.NoError(t, err)
	_, err = w.Bookings.Respond(ctx, b.ID, owner.ID, entities.BookingDecisionAccept, "")
	require.NoError(t, err)
	payment, err := w.Bookings.InitiatePayment(ctx, b.ID, requester.ID)
	require.NoError(t, err)

	report, err := w.Reaper.Reap(ctx, time.Now().Add(usecasetest.Policy.PaymentTTL+time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, report.PaymentsFailed)
	assert.Zero(t, report.BookingsUnpaid)

	b, err = w.Bookings.GetBooking(ctx, requester, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusAccepted, b.Status, "the booking keeps its payment window")

	retry, err := w.Bookings.InitiatePayment(ctx, b.ID, requester.ID)
	require.NoError(t, err)
	assert.NotEqual(t, payment.ID, retry.ID)

	failed := usecasetest.OfType[*entities.PaymentFailed_v1](w.Recorder)
	require.Len(t, failed, 1)
	assert.Equal(t, "checkout abandoned", failed[0].Reason)
}

func TestReap_AdvancesEvents(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	event := w.PublishedEvent(t, usecasetest.User(), usecasetest.EventOptions{})

	report, err := w.Reaper.Reap(ctx, event.StartsAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, report.EventsAdvanced)

	stored, err := w.Store.Events().Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.EventStatusOngoing, stored.Status)

	_, err = w.Tickets.Purchase(ctx, usecasetest.User().ID, tickets.PurchaseParams{EventID: event.ID, Quantity: 1})
	assert.ErrorIs(t, err, entities.ErrInvalidState, "sales close once the event starts")

	report, err = w.Reaper.Reap(ctx, event.EndsAt)
	require.NoError(t, err)
	assert.Equal(t, 1, report.EventsAdvanced)

	stored, err = w.Store.Events().Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.EventStatusCompleted, stored.Status)
}

func TestReap_ReportsStuckRefunds(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	holder := usecasetest.User()
	event := w.PublishedEvent(t, usecasetest.User(), usecasetest.EventOptions{TicketType: entities.TicketTypePaid, TicketPrice: 500})
	_, payment := w.PaidTicket(t, holder, event, 1)

	refund, err := w.Refunds.RequestRefund(ctx, holder, payment.ID, "crashed mid-saga", nil)
	require.NoError(t, err)

	_, err = w.Store.Refunds().UpdateByID(ctx, refund.ID, func(r entities.Refund) (entities.Refund, error) {
		if err := r.Review(entities.RefundDecisionApprove, usecasetest.Admin().ID, "", time.Now()); err != nil {
			return entities.Refund{}, err
		}
		return r, r.StartProcessing(time.Now())
	})
	require.NoError(t, err)

	report, err := w.Reaper.Reap(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, report.RefundsStuck)

	refund, err = w.Refunds.ResumeRefund(ctx, refund.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RefundStatusCompleted, refund.Status)

	report, err = w.Reaper.Reap(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, report.RefundsStuck)
}

func TestRun_StopsWithContext(t *testing.T) {
	w := usecasetest.NewWorld(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Reaper.Run(ctx, 10*time.Millisecond)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
