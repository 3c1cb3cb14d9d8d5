package message

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	"github.com/yagnesh-3/Fira-sub001/internal/interfaces/message/events"
)

func NewRouter(
	watermillLogger watermill.LoggerAdapter,
	subscribers events.SubscriberFactory,
	publisher message.Publisher,
	eventHandler *events.Handler,
	dataLake events.DataLake,
) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, err
	}

	initMiddlewares(watermillLogger, router)

	eventProcessor, err := cqrs.NewEventProcessorWithConfig(
		router,
		events.NewEventProcessorConfig(subscribers, watermillLogger),
	)
	if err != nil {
		return nil, err
	}

	handlers := append(eventHandler.SalesHandlers(), eventHandler.NotificationHandlers()...)
	err = eventProcessor.AddHandlers(handlers...)
	if err != nil {
		return nil, err
	}

	splitterSub, err := subscribers(events.ConsumerGroup("events_splitter"))
	if err != nil {
		return nil, err
	}
	router.AddNoPublisherHandler(
		"events_splitter",
		events.Topic,
		splitterSub,
		func(msg *message.Message) error {
			eventName := events.Marshaler.NameFromMessage(msg)
			if eventName == "" {
				return fmt.Errorf("%w: cannot get event name from message", events.ErrJsonUnmarshal)
			}

			return publisher.Publish(events.Topic+"."+eventName, msg)
		},
	)

	saverSub, err := subscribers(events.ConsumerGroup("events_saver"))
	if err != nil {
		return nil, err
	}
	router.AddNoPublisherHandler(
		"events_saver",
		events.Topic,
		saverSub,
		func(msg *message.Message) error {
			type Event struct {
				Header entities.EventHeader `json:"header"`
			}

			var event Event
			err := events.Marshaler.Unmarshal(msg, &event)
			if err != nil {
				return errors.Join(events.ErrJsonUnmarshal, err)
			}

			eventName := events.Marshaler.NameFromMessage(msg)
			if eventName == "" {
				return fmt.Errorf("%w: cannot get event name from message", events.ErrJsonUnmarshal)
			}

			id, err := uuid.Parse(event.Header.ID)
			if err != nil {
				return fmt.Errorf("%w: invalid event id %q", events.ErrJsonUnmarshal, event.Header.ID)
			}

			err = dataLake.SaveEvent(
				msg.Context(),
				entities.DataLakeEvent{
					ID:          id,
					PublishedAt: event.Header.PublishedAt,
					EventName:   eventName,
					Payload:     msg.Payload,
				},
			)
			if err != nil {
				return fmt.Errorf("failed to save event %s: %w", eventName, err)
			}

			return nil
		},
	)

	return router, nil
}

func initMiddlewares(watermillLogger watermill.LoggerAdapter, router *message.Router) {
	router.AddMiddleware(events.TracingMiddleware)
	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(events.CorrelationIDMiddleware)
	router.AddMiddleware(events.LoggingMiddleware)

	router.AddMiddleware(middleware.Retry{
		MaxRetries:      10,
		InitialInterval: time.Millisecond * 100,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          watermillLogger,
	}.Middleware)

	// skip marshalling errors before retrying
	router.AddMiddleware(events.SkipMarshallingErrorsMiddleware)
	router.AddMiddleware(events.MetricsMiddleware)
}
