package event_publisher

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/yagnesh-3/Fira-sub001/internal/observability"
)

// InProcess is the broker used when no Redis is configured.
// Every subscriber receives every message, so consumer groups are not needed.
type InProcess struct {
	pubSub *gochannel.GoChannel
}

func NewInProcess(wlogger watermill.LoggerAdapter) *InProcess {
	return &InProcess{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 1024,
		}, wlogger),
	}
}

func (p *InProcess) Publisher() message.Publisher {
	return CorrelationPublisherDecorator{
		Publisher: observability.PublisherWithTracing{Publisher: p.pubSub},
	}
}

func (p *InProcess) SubscriberFactory() func(consumerGroup string) (message.Subscriber, error) {
	return func(string) (message.Subscriber, error) {
		return p.pubSub, nil
	}
}

func (p *InProcess) Close() error {
	return p.pubSub.Close()
}
