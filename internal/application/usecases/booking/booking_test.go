package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/booking"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/usecasetest"
	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

func TestBooking_AcceptAndPay(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	owner, requester := usecasetest.Owner(), usecasetest.User()
	venue := w.Venue(t, owner, 100, 5000)

	b, err := w.Book(t, requester, venue, 10, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), b.TotalAmount)
	assert.Equal(t, int64(1000), b.PlatformFee)

	b, err = w.Bookings.Respond(ctx, b.ID, owner.ID, entities.BookingDecisionAccept, "")
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusAccepted, b.Status)

	payment, err := w.Bookings.InitiatePayment(ctx, b.ID, requester.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentTypeVenueBooking, payment.Type)
	assert.Equal(t, b.TotalAmount, payment.Amount)
	assert.NotEmpty(t, payment.GatewayOrderID)

	again, err := w.Bookings.InitiatePayment(ctx, b.ID, requester.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, again.ID, "pending checkout is reused")

	payment, err = w.Pay(ctx, payment)
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentStatusSuccess, payment.Status)

	b, err = w.Bookings.GetBooking(ctx, requester, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusAccepted, b.Status)
	assert.Equal(t, entities.BookingPaymentPaid, b.PaymentStatus)
	assert.Equal(t, &payment.ID, b.PaymentRef)

	_, err = w.Bookings.InitiatePayment(ctx, b.ID, requester.ID)
	assert.ErrorIs(t, err, entities.ErrInvalidState)

	succeeded := usecasetest.OfType[*entities.PaymentSucceeded_v1](w.Recorder)
	require.Len(t, succeeded, 1)
	assert.True(t, succeeded[0].Activated)
}

func TestBooking_PendingBookingsDoNotBlock(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	owner := usecasetest.Owner()
	venue := w.Venue(t, owner, 100, 5000)

	first, err := w.Book(t, usecasetest.User(), venue, 10, 12)
	require.NoError(t, err)

	second, err := w.Book(t, usecasetest.User(), venue, 11, 13)
	require.NoError(t, err, "pending requests may overlap")

	_, err = w.Bookings.Respond(ctx, first.ID, owner.ID, entities.BookingDecisionAccept, "")
	require.NoError(t, err)

	_, err = w.Book(t, usecasetest.User(), venue, 9, 11)
	assert.ErrorIs(t, err, entities.ErrConflict)
	assert.ErrorIs(t, err, entities.ErrVenueUnavailable)

	_, err = w.Bookings.Respond(ctx, second.ID, owner.ID, entities.BookingDecisionAccept, "")
	assert.ErrorIs(t, err, entities.ErrVenueUnavailable, "accepting re-checks availability")

	_, err = w.Book(t, usecasetest.User(), venue, 12, 14)
	assert.NoError(t, err, "adjacent windows do not overlap")
}

func TestBooking_BlockedDate(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	owner := usecasetest.Owner()
	venue := w.Venue(t, owner, 100, 5000)

	_, err := w.Venues.BlockDate(ctx, owner, venue.ID, usecasetest.Day().Add(3*time.Hour))
	require.NoError(t, err)

	_, err = w.Book(t, usecasetest.User(), venue, 10, 12)
	assert.ErrorIs(t, err, entities.ErrVenueUnavailable)

	_, err = w.Venues.BlockDate(ctx, usecasetest.Owner(), venue.ID, usecasetest.Day())
	assert.ErrorIs(t, err, entities.ErrForbidden)
}

func TestBooking_Validation(t *testing.T) {
	w := usecasetest.NewWorld(t)
	venue := w.Venue(t, usecasetest.Owner(), 5, 5000)

	_, err := w.Book(t, usecasetest.User(), venue, 12, 10)
	assert.ErrorIs(t, err, entities.ErrInvalidWindow)

	_, err = w.Bookings.CreateBooking(context.Background(), usecasetest.User().ID, booking.CreateBookingParams{
		VenueID: venue.ID,
		Window: entities.Window{
			Start: usecasetest.Day().Add(10 * time.Hour),
			End:   usecasetest.Day().Add(12 * time.Hour),
		},
		ExpectedGuests: 6,
	})
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = w.Book(t, usecasetest.User(), entities.Venue{ID: uuid.New()}, 10, 12)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestBooking_OnlyOwnerResponds(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	owner, requester := usecasetest.Owner(), usecasetest.User()
	venue := w.Venue(t, owner, 100, 5000)

	b, err := w.Book(t, requester, venue, 10, 12)
	require.NoError(t, err)

	_, err = w.Bookings.Respond(ctx, b.ID, requester.ID, entities.BookingDecisionAccept, "")
	assert.ErrorIs(t, err, entities.ErrForbidden)

	_, err = w.Bookings.Respond(ctx, b.ID, owner.ID, entities.BookingDecisionReject, "")
	assert.ErrorIs(t, err, entities.ErrValidation)

	b, err = w.Bookings.Respond(ctx, b.ID, owner.ID, entities.BookingDecisionReject, "private event that day")
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusRejected, b.Status)

	_, err = w.Bookings.Respond(ctx, b.ID, owner.ID, entities.BookingDecisionAccept, "")
	assert.ErrorIs(t, err, entities.ErrInvalidState)

	_, err = w.Bookings.GetBooking(ctx, usecasetest.User(), b.ID)
	assert.ErrorIs(t, err, entities.ErrForbidden)

	responded := usecasetest.OfType[*entities.BookingResponded_v1](w.Recorder)
	require.Len(t, responded, 1, "failed responses publish nothing")
	assert.Equal(t, entities.BookingDecisionReject, responded[0].Decision)
}

func TestBooking_CancelUnpaid(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	owner, requester := usecasetest.Owner(), usecasetest.User()
	venue := w.Venue(t, owner, 100, 5000)

	b, err := w.Book(t, requester, venue, 10, 12)
	require.NoError(t, err)

	_, err = w.Bookings.Cancel(ctx, b.ID, usecasetest.User().ID, "not mine")
	assert.ErrorIs(t, err, entities.ErrForbidden)

	result, err := w.Bookings.Cancel(ctx, b.ID, requester.ID, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCancelled, result.Booking.Status)
	assert.Nil(t, result.Refund)

	_, err = w.Bookings.Cancel(ctx, b.ID, requester.ID, "twice")
	assert.ErrorIs(t, err, entities.ErrInvalidState)

	_, err = w.Book(t, usecasetest.User(), venue, 10, 12)
	assert.NoError(t, err, "cancelled bookings free the window")
}

func TestBooking_CancelPaidOpensRefund(t *testing.T) {
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
	payment, err = w.Pay(ctx, payment)
	require.NoError(t, err)

	result, err := w.Bookings.Cancel(ctx, b.ID, owner.ID, "flooded")
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCancelled, result.Booking.Status)
	assert.Equal(t, entities.BookingPaymentPaid, result.Booking.PaymentStatus, "paid until the refund completes")
	require.NotNil(t, result.Refund)
	assert.Equal(t, payment.Amount, result.Refund.Amount)
	assert.Equal(t, entities.RefundStatusPending, result.Refund.Status)

	_, err = w.Refunds.ReviewRefund(ctx, usecasetest.Admin(), result.Refund.ID, entities.RefundDecisionApprove, "")
	require.NoError(t, err)

	b, err = w.Bookings.GetBooking(ctx, requester, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingPaymentRefunded, b.PaymentStatus)

	cancelled := usecasetest.OfType[*entities.BookingCancelled_v1](w.Recorder)
	require.Len(t, cancelled, 1)
	assert.Equal(t, owner.ID, cancelled[0].CancelledBy)
	assert.Equal(t, &result.Refund.ID, cancelled[0].RefundID)
}

func TestBooking_Complete(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	owner, requester := usecasetest.Owner(), usecasetest.User()
	venue := w.Venue(t, owner, 100, 0)

	yesterday := entities.TruncateToDate(time.Now()).AddDate(0, 0, -1)
	past, err := w.Bookings.CreateBooking(ctx, requester.ID, booking.CreateBookingParams{
		VenueID:        venue.ID,
		Window:         entities.Window{Start: yesterday.Add(10 * time.Hour), End: yesterday.Add(12 * time.Hour)},
		ExpectedGuests: 10,
	})
	require.NoError(t, err)

	_, err = w.Bookings.Complete(ctx, past.ID, owner.ID)
	assert.ErrorIs(t, err, entities.ErrInvalidState, "pending bookings cannot complete")

	_, err = w.Bookings.Respond(ctx, past.ID, owner.ID, entities.BookingDecisionAccept, "")
	require.NoError(t, err)

	_, err = w.Bookings.InitiatePayment(ctx, past.ID, requester.ID)
	assert.ErrorIs(t, err, entities.ErrInvalidState, "free bookings have nothing to pay")

	_, err = w.Bookings.Complete(ctx, past.ID, requester.ID)
	assert.ErrorIs(t, err, entities.ErrForbidden)

	completed, err := w.Bookings.Complete(ctx, past.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCompleted, completed.Status)

	upcoming, err := w.Book(t, requester, venue, 10, 12)
	require.NoError(t, err)
	_, err = w.Bookings.Respond(ctx, upcoming.ID, owner.ID, entities.BookingDecisionAccept, "")
	require.NoError(t, err)
	_, err = w.Bookings.Complete(ctx, upcoming.ID, owner.ID)
	assert.ErrorIs(t, err, entities.ErrInvalidState)
}

func TestBooking_CompletedBookingKeepsItsPayment(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	owner, requester, admin := usecasetest.Owner(), usecasetest.User(), usecasetest.Admin()
	venue := w.Venue(t, owner, 100, 1000)

	yesterday := entities.TruncateToDate(time.Now()).AddDate(0, 0, -1)
	b, err := w.Bookings.CreateBooking(ctx, requester.ID, booking.CreateBookingParams{
		VenueID:        venue.ID,
		Window:         entities.Window{Start: yesterday.Add(10 * time.Hour), End: yesterday.Add(12 * time.Hour)},
		ExpectedGuests: 10,
	})
	require.NoError(t, err)
	_, err = w.Bookings.Respond(ctx, b.ID, owner.ID, entities.BookingDecisionAccept, "")
	require.NoError(t, err)
	payment, err := w.Bookings.InitiatePayment(ctx, b.ID, requester.ID)
	require.NoError(t, err)
	payment, err = w.Pay(ctx, payment)
	require.NoError(t, err)

	pending, err := w.Refunds.RequestRefund(ctx, requester, payment.ID, "changed plans", nil)
	require.NoError(t, err)

	_, err = w.Bookings.Complete(ctx, b.ID, owner.ID)
	assert.ErrorIs(t, err, entities.ErrInvalidState, "a refund is in progress")

	_, err = w.Refunds.ReviewRefund(ctx, admin, pending.ID, entities.RefundDecisionReject, "event took place")
	require.NoError(t, err)

	w.Gateway.FailRefunds(errors.New("gateway down"))
	failed, err := w.Refunds.RequestRefund(ctx, requester, payment.ID, "second try", nil)
	require.NoError(t, err)
	failed, err = w.Refunds.ReviewRefund(ctx, admin, failed.ID, entities.RefundDecisionApprove, "")
	require.ErrorIs(t, err, entities.ErrGatewayFailure)
	require.Equal(t, entities.RefundStatusFailed, failed.Status)
	w.Gateway.FailRefunds(nil)

	completed, err := w.Bookings.Complete(ctx, b.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCompleted, completed.Status)

	_, err = w.Refunds.RequestRefund(ctx, requester, payment.ID, "after the fact", nil)
	assert.ErrorIs(t, err, entities.ErrInvalidState)

	_, err = w.Refunds.RetryRefund(ctx, failed.ID)
	assert.ErrorIs(t, err, entities.ErrInvalidState)

	failed, err = w.Store.Refunds().Get(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RefundStatusFailed, failed.Status)
	assert.Zero(t, w.Gateway.RefundCount())

	b, err = w.Bookings.GetBooking(ctx, requester, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCompleted, b.Status)
	assert.Equal(t, entities.BookingPaymentPaid, b.PaymentStatus)
}
