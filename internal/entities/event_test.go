package entities_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

func testEvent(t *testing.T, visibility entities.Visibility, ticketType entities.TicketType, price int64, seats int) entities.Event {
	t.Helper()

	event, err := entities.NewEvent(entities.NewEventParams{
		OrganizerID:  uuid.New(),
		VenueID:      uuid.New(),
		Title:        "Jazz Night",
		Visibility:   visibility,
		TicketType:   ticketType,
		TicketPrice:  price,
		MaxAttendees: seats,
		StartsAt:     day.Add(18 * time.Hour),
		EndsAt:       day.Add(22 * time.Hour),
	}, day)
	require.NoError(t, err)
	return event
}

func TestNewEvent(t *testing.T) {
	public := testEvent(t, "", entities.TicketTypeFree, 0, 10)
	assert.Equal(t, entities.VisibilityPublic, public.Visibility)
	assert.Equal(t, entities.EventStatusPending, public.Status)
	assert.Equal(t, entities.ApprovalPending, public.VenueApproval.Status)
	assert.Equal(t, entities.ApprovalPending, public.AdminApproval.Status)
	assert.Empty(t, public.PrivateCode)

	private := testEvent(t, entities.VisibilityPrivate, entities.TicketTypePaid, 500, 10)
	assert.Len(t, private.PrivateCode, 8)

	params := entities.NewEventParams{
		OrganizerID:  uuid.New(),
		Title:        "Broken",
		TicketType:   entities.TicketTypeFree,
		TicketPrice:  100,
		MaxAttendees: 10,
		StartsAt:     day,
		EndsAt:       day.Add(time.Hour),
	}
	_, err := entities.NewEvent(params, day)
	assert.ErrorIs(t, err, entities.ErrValidation, "free events are priced at zero")

	params.TicketType = entities.TicketTypePaid
	params.TicketPrice = 0
	_, err = entities.NewEvent(params, day)
	assert.ErrorIs(t, err, entities.ErrInvalidAmount)

	params.TicketPrice = 100
	params.EndsAt = params.StartsAt
	_, err = entities.NewEvent(params, day)
	assert.ErrorIs(t, err, entities.ErrInvalidWindow)
}

func TestDecideApproval_BothStagesPublish(t *testing.T) {
	event := testEvent(t, entities.VisibilityPublic, entities.TicketTypeFree, 0, 10)
	owner, admin := uuid.New(), uuid.New()

	err := entities.DecideApproval(&event, entities.ApprovalStageAdmin, entities.ApprovalDecisionApprove, "", admin, day)
	assert.ErrorIs(t, err, entities.ErrInvalidState, "admin stage waits for the venue")

	require.NoError(t, entities.DecideApproval(&event, entities.ApprovalStageVenue, entities.ApprovalDecisionApprove, "", owner, day))
	assert.Equal(t, entities.EventStatusPending, event.Status)
	assert.False(t, event.IsApproved())
	assert.Equal(t, &owner, event.VenueApproval.DecidedBy)

	err = entities.DecideApproval(&event, entities.ApprovalStageVenue, entities.ApprovalDecisionReject, "oops", owner, day)
	assert.ErrorIs(t, err, entities.ErrAlreadyDecided)

	require.NoError(t, entities.DecideApproval(&event, entities.ApprovalStageAdmin, entities.ApprovalDecisionApprove, "", admin, day))
	assert.Equal(t, entities.EventStatusUpcoming, event.Status)
	assert.True(t, event.IsApproved())
	assert.True(t, event.IsTicketable())

	err = entities.DecideApproval(&event, entities.ApprovalStageAdmin, entities.ApprovalDecisionApprove, "", admin, day)
	assert.ErrorIs(t, err, entities.ErrAlreadyProcessed)
}

func TestDecideApproval_RejectionIsTerminal(t *testing.T) {
	testCases := []struct {
		Name  string
		Stage entities.ApprovalStage
	}{
		{Name: "venue rejects", Stage: entities.ApprovalStageVenue},
		{Name: "admin rejects", Stage: entities.ApprovalStageAdmin},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			event := testEvent(t, entities.VisibilityPublic, entities.TicketTypeFree, 0, 10)

			if tc.Stage == entities.ApprovalStageAdmin {
				require.NoError(t, entities.DecideApproval(&event, entities.ApprovalStageVenue, entities.ApprovalDecisionApprove, "", uuid.New(), day))
			}

			require.NoError(t, entities.DecideApproval(&event, tc.Stage, entities.ApprovalDecisionReject, "not suitable", uuid.New(), day))
			assert.Equal(t, entities.EventStatusRejected, event.Status)
			assert.False(t, event.IsTicketable())
		})
	}
}

func TestDecideApproval_UnknownDecision(t *testing.T) {
	event := testEvent(t, entities.VisibilityPublic, entities.TicketTypeFree, 0, 10)

	err := entities.DecideApproval(&event, entities.ApprovalStageVenue, "perhaps", "", uuid.New(), day)
	assert.ErrorIs(t, err, entities.ErrValidation)
	assert.Equal(t, entities.ApprovalPending, event.VenueApproval.Status)
}

func TestEvent_Advance(t *testing.T) {
	event := testEvent(t, entities.VisibilityPublic, entities.TicketTypeFree, 0, 10)
	assert.False(t, event.Advance(day.Add(23*time.Hour)), "pending events stay put")

	event.Status = entities.EventStatusUpcoming

	assert.False(t, event.Advance(day.Add(17*time.Hour)))
	assert.True(t, event.Advance(day.Add(19*time.Hour)))
	assert.Equal(t, entities.EventStatusOngoing, event.Status)
	assert.True(t, event.Advance(day.Add(22*time.Hour)))
	assert.Equal(t, entities.EventStatusCompleted, event.Status)
	assert.False(t, event.Advance(day.Add(30*time.Hour)))
}
