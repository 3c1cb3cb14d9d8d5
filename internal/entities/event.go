package entities

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPending   EventStatus = "pending"
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusRejected  EventStatus = "rejected"
	EventStatusBlocked   EventStatus = "blocked"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

type TicketType string

const (
	TicketTypeFree TicketType = "free"
	TicketTypePaid TicketType = "paid"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

type ApprovalStage string

const (
	ApprovalStageVenue ApprovalStage = "venue"
	ApprovalStageAdmin ApprovalStage = "admin"
)

type ApprovalDecision string

const (
	ApprovalDecisionApprove ApprovalDecision = "approve"
	ApprovalDecisionReject  ApprovalDecision = "reject"
)

type Approval struct {
	Status    ApprovalStatus `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	DecidedBy *uuid.UUID     `json:"decided_by,omitempty"`
	DecidedAt *time.Time     `json:"decided_at,omitempty"`
}

type Event struct {
	ID               uuid.UUID   `json:"id"`
	OrganizerID      uuid.UUID   `json:"organizer_id"`
	VenueID          uuid.UUID   `json:"venue_id"`
	BookingID        *uuid.UUID  `json:"booking_id,omitempty"`
	Title            string      `json:"title"`
	Visibility       Visibility  `json:"visibility"`
	TicketType       TicketType  `json:"ticket_type"`
	TicketPrice      int64       `json:"ticket_price"`
	MaxAttendees     int         `json:"max_attendees"`
	CurrentAttendees int         `json:"current_attendees"`
	VenueApproval    Approval    `json:"venue_approval"`
	AdminApproval    Approval    `json:"admin_approval"`
	Status           EventStatus `json:"status"`
	PrivateCode      string      `json:"-"`
	StartsAt         time.Time   `json:"starts_at"`
	EndsAt           time.Time   `json:"ends_at"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

type NewEventParams struct {
	OrganizerID  uuid.UUID
	VenueID      uuid.UUID
	BookingID    *uuid.UUID
	Title        string
	Visibility   Visibility
	TicketType   TicketType
	TicketPrice  int64
	MaxAttendees int
	StartsAt     time.Time
	EndsAt       time.Time
}

func NewEvent(p NewEventParams, now time.Time) (Event, error) {
	if p.OrganizerID == uuid.Nil {
		return Event{}, Errorf(ErrValidation, "organizer id must be set")
	}
	if p.Title == "" {
		return Event{}, Errorf(ErrValidation, "event title must be set")
	}
	if p.MaxAttendees <= 0 {
		return Event{}, Errorf(ErrValidation, "max attendees must be greater than 0")
	}
	if !p.EndsAt.After(p.StartsAt) {
		return Event{}, ErrInvalidWindow
	}
	if p.Visibility == "" {
		p.Visibility = VisibilityPublic
	}
	if p.Visibility != VisibilityPublic && p.Visibility != VisibilityPrivate {
		return Event{}, Errorf(ErrValidation, "unknown visibility %q", p.Visibility)
	}

	switch p.TicketType {
	case TicketTypeFree:
		if p.TicketPrice != 0 {
			return Event{}, Errorf(ErrValidation, "free events cannot have a ticket price")
		}
	case TicketTypePaid:
		if p.TicketPrice <= 0 {
			return Event{}, ErrInvalidAmount
		}
	default:
		return Event{}, Errorf(ErrValidation, "unknown ticket type %q", p.TicketType)
	}

	now = now.UTC()
	event := Event{
		ID:            uuid.New(),
		OrganizerID:   p.OrganizerID,
		VenueID:       p.VenueID,
		BookingID:     p.BookingID,
		Title:         p.Title,
		Visibility:    p.Visibility,
		TicketType:    p.TicketType,
		TicketPrice:   p.TicketPrice,
		MaxAttendees:  p.MaxAttendees,
		VenueApproval: Approval{Status: ApprovalPending},
		AdminApproval: Approval{Status: ApprovalPending},
		Status:        EventStatusPending,
		StartsAt:      p.StartsAt.UTC(),
		EndsAt:        p.EndsAt.UTC(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// generated once, here; nothing else writes the code
	if event.Visibility == VisibilityPrivate {
		code, err := NewPrivateCode()
		if err != nil {
			return Event{}, err
		}
		event.PrivateCode = code
	}

	return event, nil
}

// DecideApproval is the single transition function for both approval stages.
// The admin stage only opens once the venue stage is approved.
func DecideApproval(
	e *Event,
	stage ApprovalStage,
	decision ApprovalDecision,
	reason string,
	decidedBy uuid.UUID,
	now time.Time,
) error {
	var approval *Approval
	switch stage {
	case ApprovalStageVenue:
		approval = &e.VenueApproval
	case ApprovalStageAdmin:
		if e.VenueApproval.Status != ApprovalApproved {
			return Errorf(ErrInvalidState, "event %s has venue approval %s, admin review requires approved", e.ID, e.VenueApproval.Status)
		}
		approval = &e.AdminApproval
	default:
		return Errorf(ErrValidation, "unknown approval stage %q", stage)
	}

	if approval.Status != ApprovalPending {
		return ErrAlreadyDecided
	}
	if e.Status != EventStatusPending {
		return Errorf(ErrInvalidState, "event %s is %s, not pending", e.ID, e.Status)
	}

	var next ApprovalStatus
	switch decision {
	case ApprovalDecisionApprove:
		next = ApprovalApproved
	case ApprovalDecisionReject:
		next = ApprovalRejected
	default:
		return Errorf(ErrValidation, "unknown decision %q", decision)
	}

	now = now.UTC()
	approval.Status = next
	approval.Reason = reason
	approval.DecidedBy = &decidedBy
	approval.DecidedAt = &now
	e.UpdatedAt = now

	switch {
	case next == ApprovalRejected:
		e.Status = EventStatusRejected
	case stage == ApprovalStageAdmin:
		e.Status = EventStatusUpcoming
	}

	return nil
}

func (e Event) IsApproved() bool {
	return e.VenueApproval.Status == ApprovalApproved && e.AdminApproval.Status == ApprovalApproved
}

func (e Event) IsTicketable() bool {
	return e.Status == EventStatusUpcoming && e.IsApproved()
}

func (e Event) SeatsLeft() int {
	return e.MaxAttendees - e.CurrentAttendees
}

// Advance moves a published event along its calendar. It reports whether the status changed.
func (e *Event) Advance(now time.Time) bool {
	switch {
	case e.Status == EventStatusUpcoming && !now.Before(e.EndsAt):
		e.Status = EventStatusCompleted
	case e.Status == EventStatusUpcoming && !now.Before(e.StartsAt):
		e.Status = EventStatusOngoing
	case e.Status == EventStatusOngoing && !now.Before(e.EndsAt):
		e.Status = EventStatusCompleted
	default:
		return false
	}

	e.UpdatedAt = now.UTC()
	return true
}
