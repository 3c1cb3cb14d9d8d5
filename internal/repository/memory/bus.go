package memory

import (
	"context"

	"github.com/yagnesh-3/Fira-sub001/internal/log"
)

type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// EventBus holds events raised inside a transaction until it commits.
// It plays the role the SQL outbox plays for the Postgres ledger.
type EventBus struct {
	store *Store
	next  Publisher
}

func NewEventBus(store *Store, next Publisher) *EventBus {
	return &EventBus{store: store, next: next}
}

func (b *EventBus) Publish(ctx context.Context, event any) error {
	b.store.AfterCommit(ctx, func() {
		err := b.next.Publish(context.WithoutCancel(ctx), event)
		if err != nil {
			log.FromContext(ctx).WithError(err).Errorf("failed to publish %T after commit", event)
		}
	})
	return nil
}
