// Package memory is an in-process ledger with the same contracts as the Postgres repositories.
// Transactions are serialized by one mutex and rolled back from a snapshot on error.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

type state struct {
	venues   map[uuid.UUID]entities.Venue
	bookings map[uuid.UUID]entities.Booking
	events   map[uuid.UUID]entities.Event
	payments map[uuid.UUID]entities.Payment
	tickets  map[uuid.UUID]entities.Ticket
	refunds  map[uuid.UUID]entities.Refund
}

func newState() *state {
	return &state{
		venues:   map[uuid.UUID]entities.Venue{},
		bookings: map[uuid.UUID]entities.Booking{},
		events:   map[uuid.UUID]entities.Event{},
		payments: map[uuid.UUID]entities.Payment{},
		tickets:  map[uuid.UUID]entities.Ticket{},
		refunds:  map[uuid.UUID]entities.Refund{},
	}
}

func (s *state) clone() *state {
	return &state{
		venues:   cloneMap(s.venues),
		bookings: cloneMap(s.bookings),
		events:   cloneMap(s.events),
		payments: cloneMap(s.payments),
		tickets:  cloneMap(s.tickets),
		refunds:  cloneMap(s.refunds),
	}
}

func cloneMap[V any](m map[uuid.UUID]V) map[uuid.UUID]V {
	out := make(map[uuid.UUID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type txKey struct{}

type memTx struct {
	afterCommit []func()
}

type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

// Do runs fn in a transaction. Nested calls join the outer transaction.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*memTx); ok {
		return fn(ctx)
	}

	tx := &memTx{}
	s.mu.Lock()
	snapshot := s.state.clone()
	committed := false

	defer func() {
		if !committed {
			s.state = snapshot
		}
		s.mu.Unlock()

		if committed {
			for _, f := range tx.afterCommit {
				f()
			}
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	committed = true
	return nil
}

// AfterCommit defers f until the surrounding transaction commits, or runs it now outside one.
func (s *Store) AfterCommit(ctx context.Context, f func()) {
	if tx, ok := ctx.Value(txKey{}).(*memTx); ok {
		tx.afterCommit = append(tx.afterCommit, f)
		return
	}
	f()
}

// lock takes the store mutex for a single statement outside a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if _, ok := ctx.Value(txKey{}).(*memTx); ok {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Venues() *VenuesRepo     { return &VenuesRepo{s: s} }
func (s *Store) Bookings() *BookingsRepo { return &BookingsRepo{s: s} }
func (s *Store) Events() *EventsRepo     { return &EventsRepo{s: s} }
func (s *Store) Payments() *PaymentsRepo { return &PaymentsRepo{s: s} }
func (s *Store) Tickets() *TicketsRepo   { return &TicketsRepo{s: s} }
func (s *Store) Refunds() *RefundsRepo   { return &RefundsRepo{s: s} }
