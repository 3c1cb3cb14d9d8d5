package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
)

type ForwarderConfig struct {
	PollInterval time.Duration
}

// Forwarder moves committed outbox messages to the broker.
type Forwarder struct {
	fwd *forwarder.Forwarder
}

func NewForwarder(
	db *sqlx.DB,
	target message.Publisher,
	logger watermill.LoggerAdapter,
	cfg ForwarderConfig,
) (*Forwarder, error) {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}

	subscriber, err := watermillSQL.NewSubscriber(
		db,
		watermillSQL.SubscriberConfig{
			SchemaAdapter:    watermillSQL.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   watermillSQL.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
			PollInterval:     cfg.PollInterval,
			ResendInterval:   cfg.PollInterval,
			RetryInterval:    cfg.PollInterval,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox subscriber: %w", err)
	}

	err = subscriber.SubscribeInitialize(Topic)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize outbox topic: %w", err)
	}

	fwd, err := forwarder.NewForwarder(
		subscriber,
		target,
		logger,
		forwarder.Config{
			ForwarderTopic: Topic,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create forwarder: %w", err)
	}

	return &Forwarder{fwd: fwd}, nil
}

// Run blocks until ctx is done.
func (f *Forwarder) Run(ctx context.Context) error {
	return f.fwd.Run(ctx)
}

func (f *Forwarder) Running() chan struct{} {
	return f.fwd.Running()
}

func (f *Forwarder) Close() error {
	return f.fwd.Close()
}
