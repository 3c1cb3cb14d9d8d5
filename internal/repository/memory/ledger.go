package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

type VenuesRepo struct {
	s *Store
}

func (r *VenuesRepo) Add(ctx context.Context, v entities.Venue) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.state.venues[v.ID]; ok {
		return entities.ErrDuplicate
	}
	r.s.state.venues[v.ID] = v
	return nil
}

func (r *VenuesRepo) Get(ctx context.Context, id uuid.UUID) (entities.Venue, error) {
	defer r.s.lock(ctx)()

	v, ok := r.s.state.venues[id]
	if !ok {
		return entities.Venue{}, entities.Errorf(entities.ErrNotFound, "venue %s", id)
	}
	return v, nil
}

// Lock is a plain read here: every transaction already holds the store mutex.
func (r *VenuesRepo) Lock(ctx context.Context, id uuid.UUID) (entities.Venue, error) {
	return r.Get(ctx, id)
}

func (r *VenuesRepo) AddBlockedDate(ctx context.Context, venueID uuid.UUID, date time.Time) error {
	defer r.s.lock(ctx)()

	v, ok := r.s.state.venues[venueID]
	if !ok {
		return entities.Errorf(entities.ErrNotFound, "venue %s", venueID)
	}
	if v.IsBlocked(date) {
		return nil
	}

	blocked := make([]time.Time, 0, len(v.BlockedDates)+1)
	blocked = append(blocked, v.BlockedDates...)
	v.BlockedDates = append(blocked, entities.TruncateToDate(date))
	r.s.state.venues[venueID] = v
	return nil
}

type BookingsRepo struct {
	s *Store
}

func (r *BookingsRepo) Add(ctx context.Context, b entities.Booking) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.state.bookings[b.ID]; ok {
		return entities.ErrDuplicate
	}
	r.s.state.bookings[b.ID] = b
	return nil
}

func (r *BookingsRepo) Get(ctx context.Context, id uuid.UUID) (entities.Booking, error) {
	defer r.s.lock(ctx)()

	b, ok := r.s.state.bookings[id]
	if !ok {
		return entities.Booking{}, entities.Errorf(entities.ErrNotFound, "booking %s", id)
	}
	return b, nil
}

func (r *BookingsRepo) UpdateByID(
	ctx context.Context,
	id uuid.UUID,
	updateFn func(b entities.Booking) (entities.Booking, error),
) (entities.Booking, error) {
	defer r.s.lock(ctx)()

	b, ok := r.s.state.bookings[id]
	if !ok {
		return entities.Booking{}, entities.Errorf(entities.ErrNotFound, "booking %s", id)
	}

	updated, err := updateFn(b)
	if err != nil {
		return entities.Booking{}, err
	}
	r.s.state.bookings[id] = updated
	return updated, nil
}

func (r *BookingsRepo) ListBlockingOverlaps(
	ctx context.Context,
	venueID uuid.UUID,
	window entities.Window,
	excludeID uuid.UUID,
) ([]entities.Booking, error) {
	defer r.s.lock(ctx)()

	var out []entities.Booking
	for _, b := range r.s.state.bookings {
		if b.VenueID != venueID || b.ID == excludeID || !b.BlocksVenue() {
			continue
		}
		if b.Window().Overlaps(window) {
			out = append(out, b)
		}
	}
	return sortBookings(out), nil
}

func (r *BookingsRepo) ListStalePending(ctx context.Context, createdBefore time.Time) ([]entities.Booking, error) {
	defer r.s.lock(ctx)()

	var out []entities.Booking
	for _, b := range r.s.state.bookings {
		if b.Status == entities.BookingStatusPending && b.CreatedAt.Before(createdBefore) {
			out = append(out, b)
		}
	}
	return sortBookings(out), nil
}

func (r *BookingsRepo) ListUnpaidAccepted(ctx context.Context, respondedBefore time.Time) ([]entities.Booking, error) {
	defer r.s.lock(ctx)()

	var out []entities.Booking
	for _, b := range r.s.state.bookings {
		if !b.AwaitingPayment() || b.OwnerRespondedAt == nil {
			continue
		}
		if b.OwnerRespondedAt.Before(respondedBefore) {
			out = append(out, b)
		}
	}
	return sortBookings(out), nil
}

func sortBookings(bs []entities.Booking) []entities.Booking {
	sort.Slice(bs, func(i, j int) bool { return bs[i].CreatedAt.Before(bs[j].CreatedAt) })
	return bs
}

type EventsRepo struct {
	s *Store
}

func (r *EventsRepo) Add(ctx context.Context, e entities.Event) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.state.events[e.ID]; ok {
		return entities.ErrDuplicate
	}
	r.s.state.events[e.ID] = e
	return nil
}

func (r *EventsRepo) Get(ctx context.Context, id uuid.UUID) (entities.Event, error) {
	defer r.s.lock(ctx)()

	e, ok := r.s.state.events[id]
	if !ok {
		return entities.Event{}, entities.Errorf(entities.ErrNotFound, "event %s", id)
	}
	return e, nil
}

func (r *EventsRepo) UpdateByID(
	ctx context.Context,
	id uuid.UUID,
	updateFn func(e entities.Event) (entities.Event, error),
) (entities.Event, error) {
	defer r.s.lock(ctx)()

	e, ok := r.s.state.events[id]
	if !ok {
		return entities.Event{}, entities.Errorf(entities.ErrNotFound, "event %s", id)
	}

	updated, err := updateFn(e)
	if err != nil {
		return entities.Event{}, err
	}
	r.s.state.events[id] = updated
	return updated, nil
}

// ReserveSeats checks capacity and increments the attendee count as one step.
func (r *EventsRepo) ReserveSeats(ctx context.Context, id uuid.UUID, quantity int) (entities.Event, error) {
	defer r.s.lock(ctx)()

	e, ok := r.s.state.events[id]
	if !ok {
		return entities.Event{}, entities.Errorf(entities.ErrNotFound, "event %s", id)
	}
	if !e.IsTicketable() {
		return entities.Event{}, entities.Errorf(entities.ErrInvalidState, "event %s is %s", id, e.Status)
	}
	if e.CurrentAttendees+quantity > e.MaxAttendees {
		return entities.Event{}, entities.ErrSoldOut
	}

	e.CurrentAttendees += quantity
	r.s.state.events[id] = e
	return e, nil
}

func (r *EventsRepo) ReleaseSeats(ctx context.Context, id uuid.UUID, quantity int) error {
	defer r.s.lock(ctx)()

	e, ok := r.s.state.events[id]
	if !ok {
		return entities.Errorf(entities.ErrNotFound, "event %s", id)
	}

	e.CurrentAttendees -= quantity
	if e.CurrentAttendees < 0 {
		e.CurrentAttendees = 0
	}
	r.s.state.events[id] = e
	return nil
}

func (r *EventsRepo) ListToAdvance(ctx context.Context, now time.Time) ([]entities.Event, error) {
	defer r.s.lock(ctx)()

	var out []entities.Event
	for _, e := range r.s.state.events {
		switch {
		case e.Status == entities.EventStatusUpcoming && !now.Before(e.StartsAt):
			out = append(out, e)
		case e.Status == entities.EventStatusOngoing && !now.Before(e.EndsAt):
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}
