package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/yagnesh-3/Fira-sub001/internal/application/usecases/usecasetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	prevProvider := otel.GetTracerProvider()
	prevPropagator := otel.GetTextMapPropagator()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})

	return recorder
}

func serverSpans(recorder *tracetest.SpanRecorder) []sdktrace.ReadOnlySpan {
	var spans []sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.SpanKind() == trace.SpanKindServer {
			spans = append(spans, s)
		}
	}
	return spans
}

func intAttr(span sdktrace.ReadOnlySpan, key string) int64 {
	for _, kv := range span.Attributes() {
		if kv.Key == attribute.Key(key) {
			return kv.Value.AsInt64()
		}
	}
	return 0
}

func TestTracing_ContinuesCallerTrace(t *testing.T) {
	recorder := recordSpans(t)
	s := newTestServer(t, true)

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	s.srv.ServeHTTP(httptest.NewRecorder(), req)

	spans := serverSpans(recorder)
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /health", spans[0].Name())
	assert.Equal(t, traceID, spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
	assert.Equal(t, int64(http.StatusOK), intAttr(spans[0], "http.status_code"))
}

func TestTracing_NamesSpansByRoute(t *testing.T) {
	recorder := recordSpans(t)
	s := newTestServer(t, false)

	user := usecasetest.User()
	rec := s.do(&user, http.MethodGet, "/venues/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(nil, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	spans := serverSpans(recorder)
	require.Len(t, spans, 2)

	assert.Equal(t, "GET /venues/:id", spans[0].Name())
	assert.Equal(t, int64(http.StatusNotFound), intAttr(spans[0], "http.status_code"))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, "GET /health", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
