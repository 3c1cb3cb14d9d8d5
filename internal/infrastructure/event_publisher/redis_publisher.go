package event_publisher

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"github.com/yagnesh-3/Fira-sub001/internal/observability"
)

func NewRedisPublisher(
	wlogger watermill.LoggerAdapter,
	redisClient *redis.Client,
) (message.Publisher, error) {
	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: redisClient,
	}, wlogger)
	if err != nil {
		return nil, err
	}

	return CorrelationPublisherDecorator{
		Publisher: observability.PublisherWithTracing{Publisher: publisher},
	}, nil
}

// NewRedisSubscriberFactory returns a constructor of stream subscribers, one consumer group each.
func NewRedisSubscriberFactory(
	wlogger watermill.LoggerAdapter,
	redisClient *redis.Client,
) func(consumerGroup string) (message.Subscriber, error) {
	return func(consumerGroup string) (message.Subscriber, error) {
		return redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        redisClient,
			ConsumerGroup: consumerGroup,
		}, wlogger)
	}
}
