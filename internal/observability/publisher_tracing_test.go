package observability_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/yagnesh-3/Fira-sub001/internal/observability"
)

type capturingPublisher struct {
	published []*message.Message
	err       error
}

func (p *capturingPublisher) Publish(_ string, messages ...*message.Message) error {
	p.published = append(p.published, messages...)
	return p.err
}

func (p *capturingPublisher) Close() error { return nil }

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prevProvider := otel.GetTracerProvider()
	prevPropagator := otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})

	return recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) string {
	for _, kv := range span.Attributes() {
		if kv.Key == attribute.Key(key) {
			return kv.Value.Emit()
		}
	}
	return ""
}

func TestPublisherWithTracing_ContinuesRequestTrace(t *testing.T) {
	recorder := recordSpans(t)
	inner := &capturingPublisher{}
	publisher := observability.PublisherWithTracing{Publisher: inner}

	ctx, requestSpan := observability.StartSpan(context.Background(), "POST /payments/verify")

	msg := message.NewMessage(watermill.NewUUID(), []byte(`{}`))
	msg.Metadata.Set("name", "PaymentVerified")
	msg.Metadata.Set("correlation_id", "corr-1")
	msg.SetContext(ctx)

	require.NoError(t, publisher.Publish("events.PaymentVerified", msg))
	requestSpan.End()

	require.Len(t, inner.published, 1)
	traceparent := inner.published[0].Metadata.Get("traceparent")
	require.NotEmpty(t, traceparent)

	carried := trace.SpanContextFromContext(
		propagation.TraceContext{}.Extract(context.Background(), propagation.MapCarrier(inner.published[0].Metadata)),
	)
	assert.Equal(t, requestSpan.SpanContext().TraceID(), carried.TraceID())

	var producer sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.Name() == "publish PaymentVerified" {
			producer = s
		}
	}
	require.NotNil(t, producer)

	assert.Equal(t, trace.SpanKindProducer, producer.SpanKind())
	assert.Equal(t, requestSpan.SpanContext().SpanID(), producer.Parent().SpanID())
	assert.Equal(t, producer.SpanContext().SpanID(), carried.SpanID())
	assert.Equal(t, "events.PaymentVerified", spanAttr(producer, "topic"))
	assert.Equal(t, "corr-1", spanAttr(producer, "correlation_id"))
}

func TestPublisherWithTracing_ForwardedMessageKeepsItsTrace(t *testing.T) {
	recorder := recordSpans(t)
	inner := &capturingPublisher{}
	publisher := observability.PublisherWithTracing{Publisher: inner}

	_, original := observability.StartSpan(context.Background(), "POST /refunds/:id/review")
	original.End()

	// the forwarder hands over a message with the stored metadata and a bare context
	msg := message.NewMessage(watermill.NewUUID(), []byte(`{}`))
	propagation.TraceContext{}.Inject(
		trace.ContextWithSpanContext(context.Background(), original.SpanContext()),
		propagation.MapCarrier(msg.Metadata),
	)

	require.NoError(t, publisher.Publish("events.RefundCompleted", msg))

	var producer sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.SpanKind() == trace.SpanKindProducer {
			producer = s
		}
	}
	require.NotNil(t, producer)

	assert.Equal(t, "publish events.RefundCompleted", producer.Name())
	assert.Equal(t, original.SpanContext().TraceID(), producer.SpanContext().TraceID())
	assert.Equal(t, original.SpanContext().SpanID(), producer.Parent().SpanID())
}

func TestPublisherWithTracing_PublishErrorMarksSpans(t *testing.T) {
	recorder := recordSpans(t)
	inner := &capturingPublisher{err: errors.New("stream unavailable")}
	publisher := observability.PublisherWithTracing{Publisher: inner}

	err := publisher.Publish(
		"events.TicketCancelled",
		message.NewMessage(watermill.NewUUID(), []byte(`{}`)),
		message.NewMessage(watermill.NewUUID(), []byte(`{}`)),
	)
	require.Error(t, err)

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	for _, s := range ended {
		assert.Equal(t, codes.Error, s.Status().Code)
	}
}

func TestEndSpan(t *testing.T) {
	recorder := recordSpans(t)

	_, ok := observability.StartSpan(context.Background(), "payments.Verify", attribute.String("order_id", "order_1"))
	observability.EndSpan(ok, nil)

	_, failed := observability.StartSpan(context.Background(), "refunds.process")
	observability.EndSpan(failed, errors.New("gateway down"))

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Equal(t, "order_1", spanAttr(ended[0], "order_id"))
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Len(t, ended[1].Events(), 1)
}
