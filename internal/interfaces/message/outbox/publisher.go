package outbox

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yagnesh-3/Fira-sub001/internal/observability"
)

// Topic is the SQL table topic the forwarder drains.
const Topic = "events_to_forward"

// NewPublisher writes messages into the outbox table through tx, so they are
// stored only when the surrounding transaction commits.
func NewPublisher(
	tx watermillSQL.ContextExecutor,
	logger watermill.LoggerAdapter,
) (message.Publisher, error) {
	publisher, err := watermillSQL.NewPublisher(
		tx,
		watermillSQL.PublisherConfig{
			SchemaAdapter: watermillSQL.DefaultPostgreSQLSchema{},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox publisher: %w", err)
	}

	// traced outside the envelope, so the trace context travels with the event's own metadata
	return observability.PublisherWithTracing{
		Publisher: forwarder.NewPublisher(
			publisher,
			forwarder.PublisherConfig{ForwarderTopic: Topic},
		),
	}, nil
}
