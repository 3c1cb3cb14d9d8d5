package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	// Topic receives every domain event. The splitter fans it out to per-event topics.
	Topic = "events"

	consumerGroupPrefix = "svc-fira."
)

var Marshaler = cqrs.JSONMarshaler{
	GenerateName: cqrs.StructName,
}

// SubscriberFactory returns a subscriber reading as consumerGroup.
type SubscriberFactory func(consumerGroup string) (message.Subscriber, error)

func ConsumerGroup(handlerName string) string {
	return consumerGroupPrefix + handlerName
}

func NewEventProcessorConfig(
	subscribers SubscriberFactory,
	watermillLogger watermill.LoggerAdapter,
) cqrs.EventProcessorConfig {
	return cqrs.EventProcessorConfig{
		GenerateSubscribeTopic: func(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
			return Topic + "." + params.EventName, nil
		},
		SubscriberConstructor: func(params cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return subscribers(ConsumerGroup(params.HandlerName))
		},
		Marshaler: Marshaler,
		Logger:    watermillLogger,
	}
}
