package observability

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// PublisherWithTracing opens a producer span for every published event and writes its
// context into the message metadata, where the router's tracing middleware picks it up.
//
// A message with no span in its context continues the trace already stored in its metadata,
// so events re-published by the outbox forwarder stay on the request's trace.
type PublisherWithTracing struct {
	message.Publisher
}

func (p PublisherWithTracing) Publish(topic string, messages ...*message.Message) error {
	spans := make([]trace.Span, 0, len(messages))
	for _, msg := range messages {
		if msg.Metadata == nil {
			msg.Metadata = message.Metadata{}
		}

		ctx := msg.Context()
		if !trace.SpanContextFromContext(ctx).IsValid() {
			ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Metadata))
		}

		eventName := msg.Metadata.Get("name")
		if eventName == "" {
			eventName = topic
		}

		ctx, span := Tracer().Start(
			ctx,
			"publish "+eventName,
			trace.WithSpanKind(trace.SpanKindProducer),
			trace.WithAttributes(
				attribute.String("topic", topic),
				attribute.String("event_name", eventName),
				attribute.String("message_uuid", msg.UUID),
				attribute.String("correlation_id", msg.Metadata.Get("correlation_id")),
			),
		)
		otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Metadata))
		spans = append(spans, span)
	}

	err := p.Publisher.Publish(topic, messages...)
	for _, span := range spans {
		EndSpan(span, err)
	}
	return err
}
