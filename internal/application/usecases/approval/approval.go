package approval

import (
	"context"
	"crypto/subtle"
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

type VenuesRepo interface {
	Get(ctx context.Context, id uuid.UUID) (entities.Venue, error)
}

type BookingsRepo interface {
	Get(ctx context.Context, id uuid.UUID) (entities.Booking, error)
	UpdateByID(ctx context.Context, id uuid.UUID, updateFn func(b entities.Booking) (entities.Booking, error)) (entities.Booking, error)
}

type EventsRepo interface {
	Add(ctx context.Context, e entities.Event) error
	Get(ctx context.Context, id uuid.UUID) (entities.Event, error)
	UpdateByID(ctx context.Context, id uuid.UUID, updateFn func(e entities.Event) (entities.Event, error)) (entities.Event, error)
}

// AccessGrants remembers which users entered a private event's code.
type AccessGrants interface {
	Grant(ctx context.Context, eventID, userID uuid.UUID) error
}

type SalesReadModel interface {
	Get(ctx context.Context, eventID uuid.UUID) (entities.EventSales, error)
}

type Usecase struct {
	tx       TxManager
	bus      EventBus
	venues   VenuesRepo
	bookings BookingsRepo
	events   EventsRepo
	grants   AccessGrants
	sales    SalesReadModel
}

func NewUsecase(
	tx TxManager,
	bus EventBus,
	venues VenuesRepo,
	bookings BookingsRepo,
	events EventsRepo,
	grants AccessGrants,
	sales SalesReadModel,
) *Usecase {
	return &Usecase{
		tx:       tx,
		bus:      bus,
		venues:   venues,
		bookings: bookings,
		events:   events,
		grants:   grants,
		sales:    sales,
	}
}

type CreateEventParams struct {
	VenueID      uuid.UUID
	BookingID    *uuid.UUID
	Title        string
	Visibility   entities.Visibility
	TicketType   entities.TicketType
	TicketPrice  int64
	MaxAttendees int
	StartsAt     time.Time
	EndsAt       time.Time
}

func (u *Usecase) CreateEvent(ctx context.Context, organizerID uuid.UUID, params CreateEventParams) (entities.Event, error) {
	var event entities.Event

	err := u.tx.Do(ctx, func(ctx context.Context) error {
		venue, err := u.venues.Get(ctx, params.VenueID)
		if err != nil {
			return err
		}
		if params.MaxAttendees > venue.Capacity {
			return entities.Errorf(entities.ErrValidation, "max attendees %d exceed venue capacity %d", params.MaxAttendees, venue.Capacity)
		}

		event, err = entities.NewEvent(entities.NewEventParams{
			OrganizerID:  organizerID,
			VenueID:      venue.ID,
			BookingID:    params.BookingID,
			Title:        params.Title,
			Visibility:   params.Visibility,
			TicketType:   params.TicketType,
			TicketPrice:  params.TicketPrice,
			MaxAttendees: params.MaxAttendees,
			StartsAt:     params.StartsAt,
			EndsAt:       params.EndsAt,
		}, time.Now())
		if err != nil {
			return err
		}

		if params.BookingID != nil {
			if err := u.attachBooking(ctx, *params.BookingID, event); err != nil {
				return err
			}
		}

		if err := u.events.Add(ctx, event); err != nil {
			return fmt.Errorf("failed to add event: %w", err)
		}

		return u.bus.Publish(ctx, &entities.EventSubmitted_v1{
			Header:      idempotency.EventHeader(ctx),
			EventID:     event.ID,
			OrganizerID: event.OrganizerID,
			VenueID:     event.VenueID,
			Title:       event.Title,
		})
	})
	if err != nil {
		return entities.Event{}, err
	}

	log.FromContext(ctx).
		WithField("event_id", event.ID).
		WithField("visibility", event.Visibility).
		Info("Event submitted for approval")

	return event, nil
}

func (u *Usecase) attachBooking(ctx context.Context, bookingID uuid.UUID, event entities.Event) error {
	_, err := u.bookings.UpdateByID(ctx, bookingID, func(b entities.Booking) (entities.Booking, error) {
		if b.RequesterID != event.OrganizerID {
			return entities.Booking{}, entities.Errorf(entities.ErrForbidden, "booking %s belongs to another user", b.ID)
		}
		if b.VenueID != event.VenueID {
			return entities.Booking{}, entities.Errorf(entities.ErrValidation, "booking %s is for another venue", b.ID)
		}
		if b.Status != entities.BookingStatusAccepted {
			return entities.Booking{}, entities.Errorf(entities.ErrInvalidState, "booking %s is %s, not accepted", b.ID, b.Status)
		}
		if b.EventID != nil {
			return entities.Booking{}, entities.Errorf(entities.ErrConflict, "booking %s already hosts event %s", b.ID, *b.EventID)
		}
		if event.StartsAt.Before(b.StartTime) || event.EndsAt.After(b.EndTime) {
			return entities.Booking{}, entities.Errorf(entities.ErrValidation, "event must take place within booking %s", b.ID)
		}

		b.EventID = &event.ID
		b.UpdatedAt = time.Now().UTC()
		return b, nil
	})
	return err
}

// VenueApprove records the venue owner's decision, the first of the two approval stages.
func (u *Usecase) VenueApprove(
	ctx context.Context,
	eventID uuid.UUID,
	ownerID uuid.UUID,
	decision entities.ApprovalDecision,
	reason string,
) (entities.Event, error) {
	return u.decide(ctx, eventID, entities.ApprovalStageVenue, decision, reason, ownerID, func(ctx context.Context, e entities.Event) error {
		venue, err := u.venues.Get(ctx, e.VenueID)
		if err != nil {
			return err
		}
		if venue.OwnerID != ownerID {
			return entities.Errorf(entities.ErrForbidden, "only the owner of venue %s can approve event %s", venue.ID, e.ID)
		}
		return nil
	})
}

// AdminApprove records the platform decision. It opens only after the venue stage approved.
func (u *Usecase) AdminApprove(
	ctx context.Context,
	eventID uuid.UUID,
	admin entities.Actor,
	decision entities.ApprovalDecision,
	reason string,
) (entities.Event, error) {
	return u.decide(ctx, eventID, entities.ApprovalStageAdmin, decision, reason, admin.ID, func(context.Context, entities.Event) error {
		if !admin.IsAdmin() {
			return entities.Errorf(entities.ErrForbidden, "admin approval requires the admin role")
		}
		return nil
	})
}

func (u *Usecase) decide(
	ctx context.Context,
	eventID uuid.UUID,
	stage entities.ApprovalStage,
	decision entities.ApprovalDecision,
	reason string,
	actorID uuid.UUID,
	authorize func(ctx context.Context, e entities.Event) error,
) (entities.Event, error) {
	var event entities.Event

	err := u.tx.Do(ctx, func(ctx context.Context) error {
		current, err := u.events.Get(ctx, eventID)
		if err != nil {
			return err
		}
		if err := authorize(ctx, current); err != nil {
			return err
		}

		event, err = u.events.UpdateByID(ctx, eventID, func(e entities.Event) (entities.Event, error) {
			if err := entities.DecideApproval(&e, stage, decision, reason, actorID, time.Now()); err != nil {
				return entities.Event{}, err
			}
			return e, nil
		})
		if err != nil {
			return err
		}

		err = u.bus.Publish(ctx, &entities.EventApprovalDecided_v1{
			Header:      idempotency.EventHeader(ctx),
			EventID:     event.ID,
			OrganizerID: event.OrganizerID,
			Stage:       stage,
			Decision:    decision,
			Reason:      reason,
			Status:      event.Status,
		})
		if err != nil {
			return err
		}

		if event.Status != entities.EventStatusUpcoming {
			return nil
		}
		return u.bus.Publish(ctx, &entities.EventPublished_v1{
			Header:       idempotency.EventHeader(ctx),
			EventID:      event.ID,
			OrganizerID:  event.OrganizerID,
			Title:        event.Title,
			MaxAttendees: event.MaxAttendees,
			StartsAt:     event.StartsAt,
		})
	})
	if err != nil {
		return entities.Event{}, err
	}

	log.FromContext(ctx).
		WithField("event_id", event.ID).
		WithField("stage", stage).
		WithField("decision", decision).
		WithField("status", event.Status).
		Info("Event approval decided")

	return event, nil
}

// CheckPrivateCode grants userID access to a private event when code matches.
func (u *Usecase) CheckPrivateCode(ctx context.Context, eventID, userID uuid.UUID, code string) error {
	event, err := u.events.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Visibility != entities.VisibilityPrivate {
		return entities.Errorf(entities.ErrValidation, "event %s is public", eventID)
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(event.PrivateCode)) != 1 {
		return entities.Errorf(entities.ErrForbidden, "wrong access code for event %s", eventID)
	}

	if err := u.grants.Grant(ctx, eventID, userID); err != nil {
		return fmt.Errorf("failed to store access grant: %w", err)
	}
	return nil
}

// GetEvent returns the event. The private code is only shown to its organizer and admins.
func (u *Usecase) GetEvent(ctx context.Context, actor entities.Actor, eventID uuid.UUID) (EventView, error) {
	event, err := u.events.Get(ctx, eventID)
	if err != nil {
		return EventView{}, err
	}

	view := EventView{Event: event}
	if actor.ID == event.OrganizerID || actor.IsAdmin() {
		view.PrivateCode = event.PrivateCode
	}
	return view, nil
}

type EventView struct {
	entities.Event
	PrivateCode string `json:"private_code,omitempty"`
}

func (u *Usecase) GetSales(ctx context.Context, actor entities.Actor, eventID uuid.UUID) (entities.EventSales, error) {
	event, err := u.events.Get(ctx, eventID)
	if err != nil {
		return entities.EventSales{}, err
	}
	if actor.ID != event.OrganizerID && !actor.IsAdmin() {
		return entities.EventSales{}, entities.Errorf(entities.ErrForbidden, "sales of event %s are visible to its organizer", eventID)
	}

	return u.sales.Get(ctx, eventID)
}
