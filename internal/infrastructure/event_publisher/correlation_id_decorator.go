package event_publisher

import (
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yagnesh-3/Fira-sub001/internal/log"
)

// CorrelationPublisherDecorator copies the request correlation id into message metadata.
type CorrelationPublisherDecorator struct {
	message.Publisher
}

func (c CorrelationPublisherDecorator) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if msg.Metadata.Get("correlation_id") != "" {
			continue
		}
		if correlationID := log.CorrelationIDFromContext(msg.Context()); correlationID != "" {
			msg.Metadata.Set("correlation_id", correlationID)
		}
	}
	return c.Publisher.Publish(topic, messages...)
}
