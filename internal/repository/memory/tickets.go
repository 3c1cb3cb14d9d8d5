package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

type TicketsRepo struct {
	s *Store
}

func (r *TicketsRepo) Add(ctx context.Context, t entities.Ticket) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.state.tickets[t.ID]; ok {
		return entities.ErrDuplicate
	}
	for _, other := range r.s.state.tickets {
		if other.Code == t.Code {
			return entities.ErrDuplicate
		}
	}
	r.s.state.tickets[t.ID] = t
	return nil
}

func (r *TicketsRepo) Get(ctx context.Context, id uuid.UUID) (entities.Ticket, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.state.tickets[id]
	if !ok {
		return entities.Ticket{}, entities.Errorf(entities.ErrNotFound, "ticket %s", id)
	}
	return t, nil
}

func (r *TicketsRepo) GetByCode(ctx context.Context, code string) (entities.Ticket, error) {
	defer r.s.lock(ctx)()

	for _, t := range r.s.state.tickets {
		if t.Code == code {
			return t, nil
		}
	}
	return entities.Ticket{}, entities.Errorf(entities.ErrNotFound, "ticket %s", code)
}

func (r *TicketsRepo) UpdateByID(
	ctx context.Context,
	id uuid.UUID,
	updateFn func(t entities.Ticket) (entities.Ticket, error),
) (entities.Ticket, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.state.tickets[id]
	if !ok {
		return entities.Ticket{}, entities.Errorf(entities.ErrNotFound, "ticket %s", id)
	}

	updated, err := updateFn(t)
	if err != nil {
		return entities.Ticket{}, err
	}
	if t.IsUsed && !updated.IsUsed {
		return entities.Ticket{}, entities.Errorf(entities.ErrInvalidState, "ticket %s cannot be marked unused", t.Code)
	}
	r.s.state.tickets[id] = updated
	return updated, nil
}

func (r *TicketsRepo) ListStalePending(ctx context.Context, createdBefore time.Time) ([]entities.Ticket, error) {
	defer r.s.lock(ctx)()

	var out []entities.Ticket
	for _, t := range r.s.state.tickets {
		if t.Status == entities.TicketStatusPending && t.CreatedAt.Before(createdBefore) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
