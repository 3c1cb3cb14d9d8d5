package approval_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/approval"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/tickets"
	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/usecasetest"
	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

func submit(t *testing.T, w *usecasetest.World, organizer entities.Actor, venue entities.Venue, visibility entities.Visibility) entities.Event {
	t.Helper()

	event, err := w.Approval.CreateEvent(context.Background(), organizer.ID, approval.CreateEventParams{
		VenueID:      venue.ID,
		Title:        "Poetry Evening",
		Visibility:   visibility,
		TicketType:   entities.TicketTypeFree,
		MaxAttendees: 50,
		StartsAt:     usecasetest.Day().Add(18 * time.Hour),
		EndsAt:       usecasetest.Day().Add(20 * time.Hour),
	})
	require.NoError(t, err)
	return event
}

func TestApproval_DualApproval(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	owner, organizer, admin := usecasetest.Owner(), usecasetest.User(), usecasetest.Admin()
	venue := w.Venue(t, owner, 100, 0)

	event := submit(t, w, organizer, venue, entities.VisibilityPublic)
	assert.Equal(t, entities.EventStatusPending, event.Status)

	_, err := w.Approval.AdminApprove(ctx, event.ID, admin, entities.ApprovalDecisionApprove, "")
	assert.ErrorIs(t, err, entities.ErrInvalidState, "admin waits for the venue owner")

	_, err = w.Approval.VenueApprove(ctx, event.ID, usecasetest.Owner().ID, entities.ApprovalDecisionApprove, "")
	assert.ErrorIs(t, err, entities.ErrForbidden)

	event, err = w.Approval.VenueApprove(ctx, event.ID, owner.ID, entities.ApprovalDecisionApprove, "looks fine")
	require.NoError(t, err)
	assert.Equal(t, entities.ApprovalApproved, event.VenueApproval.Status)
	assert.Equal(t, entities.EventStatusPending, event.Status)

	_, err = w.Approval.VenueApprove(ctx, event.ID, owner.ID, entities.ApprovalDecisionReject, "changed my mind")
	assert.ErrorIs(t, err, entities.ErrAlreadyProcessed)

	_, err = w.Approval.AdminApprove(ctx, event.ID, organizer, entities.ApprovalDecisionApprove, "")
	assert.ErrorIs(t, err, entities.ErrForbidden)

	event, err = w.Approval.AdminApprove(ctx, event.ID, admin, entities.ApprovalDecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, entities.EventStatusUpcoming, event.Status)
	assert.True(t, event.IsTicketable())

	decided := usecasetest.OfType[*entities.EventApprovalDecided_v1](w.Recorder)
	require.Len(t, decided, 2)
	assert.Equal(t, entities.ApprovalStageVenue, decided[0].Stage)
	assert.Equal(t, entities.ApprovalStageAdmin, decided[1].Stage)

	published := usecasetest.OfType[*entities.EventPublished_v1](w.Recorder)
	require.Len(t, published, 1)
	assert.Equal(t, event.ID, published[0].EventID)
}

func TestApproval_VenueRejection(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	owner, organizer := usecasetest.Owner(), usecasetest.User()
	venue := w.Venue(t, owner, 100, 0)
	event := submit(t, w, organizer, venue, entities.VisibilityPublic)

	event, err := w.Approval.VenueApprove(ctx, event.ID, owner.ID, entities.ApprovalDecisionReject, "double booked")
	require.NoError(t, err)
	assert.Equal(t, entities.EventStatusRejected, event.Status)
	assert.Equal(t, "double booked", event.VenueApproval.Reason)

	_, err = w.Approval.AdminApprove(ctx, event.ID, usecasetest.Admin(), entities.ApprovalDecisionApprove, "")
	assert.ErrorIs(t, err, entities.ErrInvalidState)

	_, err = w.Tickets.Purchase(ctx, usecasetest.User().ID, tickets.PurchaseParams{EventID: event.ID, Quantity: 1})
	assert.ErrorIs(t, err, entities.ErrInvalidState)

	assert.Empty(t, usecasetest.OfType[*entities.EventPublished_v1](w.Recorder))
}

func TestApproval_CreateEventValidation(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	venue := w.Venue(t, usecasetest.Owner(), 20, 0)

	_, err := w.Approval.CreateEvent(ctx, usecasetest.User().ID, approval.CreateEventParams{
		VenueID:      venue.ID,
		Title:        "Too big",
		TicketType:   entities.TicketTypeFree,
		MaxAttendees: 21,
		StartsAt:     usecasetest.Day().Add(18 * time.Hour),
		EndsAt:       usecasetest.Day().Add(20 * time.Hour),
	})
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = w.Approval.CreateEvent(ctx, usecasetest.User().ID, approval.CreateEventParams{
		VenueID:      uuid.New(),
		Title:        "Nowhere",
		TicketType:   entities.TicketTypeFree,
		MaxAttendees: 10,
		StartsAt:     usecasetest.Day().Add(18 * time.Hour),
		EndsAt:       usecasetest.Day().Add(20 * time.Hour),
	})
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestApproval_EventAtBookedWindow(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	owner, organizer := usecasetest.Owner(), usecasetest.User()
	venue := w.Venue(t, owner, 100, 0)

	b, err := w.Book(t, organizer, venue, 17, 23)
	require.NoError(t, err)

	params := approval.CreateEventParams{
		VenueID:      venue.ID,
		BookingID:    &b.ID,
		Title:        "Launch Party",
		TicketType:   entities.TicketTypeFree,
		MaxAttendees: 50,
		StartsAt:     usecasetest.Day().Add(18 * time.Hour),
		EndsAt:       usecasetest.Day().Add(22 * time.Hour),
	}

	_, err = w.Approval.CreateEvent(ctx, organizer.ID, params)
	assert.ErrorIs(t, err, entities.ErrInvalidState, "booking is not accepted yet")

	_, err = w.Bookings.Respond(ctx, b.ID, owner.ID, entities.BookingDecisionAccept, "")
	require.NoError(t, err)

	_, err = w.Approval.CreateEvent(ctx, usecasetest.User().ID, params)
	assert.ErrorIs(t, err, entities.ErrForbidden)

	outside := params
	outside.EndsAt = usecasetest.Day().Add(24 * time.Hour)
	_, err = w.Approval.CreateEvent(ctx, organizer.ID, outside)
	assert.ErrorIs(t, err, entities.ErrValidation)

	event, err := w.Approval.CreateEvent(ctx, organizer.ID, params)
	require.NoError(t, err)

	b, err = w.Bookings.GetBooking(ctx, organizer, b.ID)
	require.NoError(t, err)
	assert.Equal(t, &event.ID, b.EventID)

	_, err = w.Approval.CreateEvent(ctx, organizer.ID, params)
	assert.ErrorIs(t, err, entities.ErrConflict, "one event per booking")
}

func TestApproval_PrivateCode(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	organizer, guest := usecasetest.User(), usecasetest.User()

	event := w.PublishedEvent(t, organizer, usecasetest.EventOptions{Visibility: entities.VisibilityPrivate})

	view, err := w.Approval.GetEvent(ctx, guest, event.ID)
	require.NoError(t, err)
	assert.Empty(t, view.PrivateCode)

	view, err = w.Approval.GetEvent(ctx, organizer, event.ID)
	require.NoError(t, err)
	require.Len(t, view.PrivateCode, 8)
	code := view.PrivateCode

	_, err = w.Tickets.Purchase(ctx, guest.ID, tickets.PurchaseParams{EventID: event.ID, Quantity: 1})
	assert.ErrorIs(t, err, entities.ErrForbidden)

	err = w.Approval.CheckPrivateCode(ctx, event.ID, guest.ID, "WRONGCOD")
	assert.ErrorIs(t, err, entities.ErrForbidden)

	require.NoError(t, w.Approval.CheckPrivateCode(ctx, event.ID, guest.ID, code))

	result, err := w.Tickets.Purchase(ctx, guest.ID, tickets.PurchaseParams{EventID: event.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, entities.TicketStatusActive, result.Ticket.Status)

	_, err = w.Tickets.Purchase(ctx, organizer.ID, tickets.PurchaseParams{EventID: event.ID, Quantity: 1})
	assert.NoError(t, err, "organizers need no code")

	public := w.PublishedEvent(t, organizer, usecasetest.EventOptions{})
	err = w.Approval.CheckPrivateCode(ctx, public.ID, guest.ID, code)
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestApproval_SalesVisibleToOrganizer(t *testing.T) {
	ctx := context.Background()
	w := usecasetest.NewWorld(t)
	organizer := usecasetest.User()
	event := w.PublishedEvent(t, organizer, usecasetest.EventOptions{})

	sales, err := w.Approval.GetSales(ctx, organizer, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, sales.EventID)

	_, err = w.Approval.GetSales(ctx, usecasetest.User(), event.ID)
	assert.ErrorIs(t, err, entities.ErrForbidden)

	_, err = w.Approval.GetSales(ctx, usecasetest.Admin(), event.ID)
	assert.NoError(t, err)
}
