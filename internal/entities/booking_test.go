package entities_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

var day = time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)

func testVenue(t *testing.T, capacity int, pricePerHour int64) entities.Venue {
	t.Helper()

	venue, err := entities.NewVenue(uuid.New(), "Main Hall", capacity, pricePerHour, day)
	require.NoError(t, err)
	return venue
}

func window(fromHour, toHour int) entities.Window {
	return entities.Window{
		Start: day.Add(time.Duration(fromHour) * time.Hour),
		End:   day.Add(time.Duration(toHour) * time.Hour),
	}
}

func TestWindow(t *testing.T) {
	assert.ErrorIs(t, window(10, 10).Validate(), entities.ErrInvalidWindow)
	assert.ErrorIs(t, window(12, 10).Validate(), entities.ErrInvalidWindow)
	assert.ErrorIs(t, entities.Window{}.Validate(), entities.ErrValidation)
	assert.NoError(t, window(10, 12).Validate())

	assert.True(t, window(10, 12).Overlaps(window(11, 13)))
	assert.True(t, window(10, 14).Overlaps(window(11, 12)))
	assert.False(t, window(10, 12).Overlaps(window(12, 14)), "windows are half-open")
	assert.False(t, window(14, 16).Overlaps(window(10, 12)))

	partial := entities.Window{Start: day.Add(10 * time.Hour), End: day.Add(11*time.Hour + 15*time.Minute)}
	assert.Equal(t, int64(2), partial.BillableHours())
}

func TestNewBooking(t *testing.T) {
	venue := testVenue(t, 100, 5000)

	booking, err := entities.NewBooking(uuid.New(), venue, window(10, 13), 50, "wedding", 10, day)
	require.NoError(t, err)

	assert.Equal(t, entities.BookingStatusPending, booking.Status)
	assert.Equal(t, entities.BookingPaymentPending, booking.PaymentStatus)
	assert.Equal(t, int64(15000), booking.TotalAmount)
	assert.Equal(t, int64(1500), booking.PlatformFee)
	assert.Equal(t, day, booking.Date)
	assert.False(t, booking.BlocksVenue())

	_, err = entities.NewBooking(uuid.New(), venue, window(10, 13), 101, "too many", 10, day)
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = entities.NewBooking(uuid.New(), venue, window(10, 13), 0, "nobody", 10, day)
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = entities.NewBooking(uuid.New(), venue, window(13, 10), 10, "backwards", 10, day)
	assert.ErrorIs(t, err, entities.ErrInvalidWindow)
}

func TestBooking_Lifecycle(t *testing.T) {
	venue := testVenue(t, 100, 5000)
	booking, err := entities.NewBooking(uuid.New(), venue, window(10, 12), 10, "meetup", 10, day)
	require.NoError(t, err)

	assert.False(t, booking.AwaitingPayment())

	require.NoError(t, booking.Respond(entities.BookingDecisionAccept, "", day))
	assert.Equal(t, entities.BookingStatusAccepted, booking.Status)
	assert.NotNil(t, booking.OwnerRespondedAt)
	assert.True(t, booking.BlocksVenue())
	assert.True(t, booking.AwaitingPayment())

	err = booking.Respond(entities.BookingDecisionReject, "changed my mind", day)
	assert.ErrorIs(t, err, entities.ErrInvalidState)

	err = booking.Complete(day.Add(13 * time.Hour))
	assert.ErrorIs(t, err, entities.ErrInvalidState, "unpaid bookings cannot complete")

	paymentID := uuid.New()
	require.NoError(t, booking.MarkPaid(paymentID, day))
	assert.True(t, booking.IsPaid())
	assert.Equal(t, &paymentID, booking.PaymentRef)

	assert.ErrorIs(t, booking.MarkPaid(uuid.New(), day), entities.ErrInvalidState)

	err = booking.Complete(day.Add(11 * time.Hour))
	assert.ErrorIs(t, err, entities.ErrInvalidState, "window has not ended")

	require.NoError(t, booking.Complete(day.Add(12*time.Hour)))
	assert.Equal(t, entities.BookingStatusCompleted, booking.Status)

	assert.ErrorIs(t, booking.Cancel("late", day), entities.ErrInvalidState)
}

func TestBooking_Reject(t *testing.T) {
	venue := testVenue(t, 100, 5000)
	booking, err := entities.NewBooking(uuid.New(), venue, window(10, 12), 10, "meetup", 10, day)
	require.NoError(t, err)

	err = booking.Respond(entities.BookingDecisionReject, "", day)
	assert.ErrorIs(t, err, entities.ErrValidation, "rejection needs a reason")
	assert.Equal(t, entities.BookingStatusPending, booking.Status)

	err = booking.Respond("maybe", "", day)
	assert.ErrorIs(t, err, entities.ErrValidation)

	require.NoError(t, booking.Respond(entities.BookingDecisionReject, "under renovation", day))
	assert.Equal(t, entities.BookingStatusRejected, booking.Status)
	assert.Equal(t, "under renovation", booking.RejectionReason)
	assert.False(t, booking.BlocksVenue())

	assert.ErrorIs(t, booking.Cancel("too late", day), entities.ErrInvalidState)
}

func TestBooking_FreeVenueCompletesWithoutPayment(t *testing.T) {
	venue := testVenue(t, 100, 0)
	booking, err := entities.NewBooking(uuid.New(), venue, window(10, 12), 10, "community", 10, day)
	require.NoError(t, err)
	require.NoError(t, booking.Respond(entities.BookingDecisionAccept, "", day))

	assert.False(t, booking.AwaitingPayment())
	assert.ErrorIs(t, booking.MarkPaid(uuid.New(), day), entities.ErrInvalidState)

	require.NoError(t, booking.Complete(day.Add(12*time.Hour)))
}

func TestBooking_CheckRefundable(t *testing.T) {
	venue := testVenue(t, 100, 1000)
	booking, err := entities.NewBooking(uuid.New(), venue, window(10, 12), 10, "offsite", 10, day)
	require.NoError(t, err)
	require.NoError(t, booking.Respond(entities.BookingDecisionAccept, "", day))

	paymentID, latePaymentID := uuid.New(), uuid.New()
	require.NoError(t, booking.MarkPaid(paymentID, day))
	assert.NoError(t, booking.CheckRefundable(paymentID))

	require.NoError(t, booking.Complete(day.Add(12*time.Hour)))
	assert.ErrorIs(t, booking.CheckRefundable(paymentID), entities.ErrInvalidState)
	assert.NoError(t, booking.CheckRefundable(latePaymentID), "payments that never settled the booking stay refundable")
}

func TestVenue_IsBlocked(t *testing.T) {
	venue := testVenue(t, 10, 100)
	venue.BlockedDates = []time.Time{day.Add(15 * time.Hour)}

	assert.True(t, venue.IsBlocked(day))
	assert.True(t, venue.IsBlocked(day.Add(23*time.Hour)))
	assert.False(t, venue.IsBlocked(day.AddDate(0, 0, 1)))

	_, err := entities.NewVenue(uuid.New(), "", 10, 100, day)
	assert.ErrorIs(t, err, entities.ErrValidation)
	_, err = entities.NewVenue(uuid.New(), "Hall", 0, 100, day)
	assert.ErrorIs(t, err, entities.ErrValidation)
}
