package outbox

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jmoiron/sqlx"

	"github.com/yagnesh-3/Fira-sub001/internal/interfaces/message/events"
)

// EventBus publishes events into the outbox using the transaction carried by ctx.
// Outside a transaction the event is written straight through the pool.
type EventBus struct {
	db       *sqlx.DB
	trGetter *trmsqlx.CtxGetter
	logger   watermill.LoggerAdapter
}

func NewEventBus(db *sqlx.DB, trGetter *trmsqlx.CtxGetter, logger watermill.LoggerAdapter) *EventBus {
	return &EventBus{
		db:       db,
		trGetter: trGetter,
		logger:   logger,
	}
}

func (b *EventBus) Publish(ctx context.Context, event any) error {
	tr := b.trGetter.DefaultTrOrDB(ctx, b.db)

	publisher, err := NewPublisher(tr, b.logger)
	if err != nil {
		return err
	}

	eb, err := events.NewEventBus(publisher, b.logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}

	err = eb.Publish(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to publish %T to outbox: %w", event, err)
	}

	return nil
}
