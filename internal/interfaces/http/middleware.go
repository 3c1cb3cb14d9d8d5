package http

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/yagnesh-3/Fira-sub001/internal/idempotency"
	"github.com/yagnesh-3/Fira-sub001/internal/log"
	"github.com/yagnesh-3/Fira-sub001/internal/observability"
)

const (
	correlationIDHeader  = "Correlation-ID"
	idempotencyKeyHeader = "Idempotency-Key"
)

func CorrelationIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()

		correlationID := req.Header.Get(correlationIDHeader)
		if correlationID == "" {
			correlationID = "gen_" + uuid.NewString()
		}

		ctx := log.ContextWithCorrelationID(req.Context(), correlationID)
		ctx = log.ToContext(ctx, logrus.WithFields(logrus.Fields{
			"correlation_id": correlationID,
		}))

		c.SetRequest(req.WithContext(ctx))
		c.Response().Header().Set(correlationIDHeader, correlationID)

		return next(c)
	}
}

// TracingMiddleware opens a server span per request, continuing a caller's traceparent header.
// Events published while handling the request carry this span to their handlers.
func TracingMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		route := c.Path()

		ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))
		ctx, span := observability.Tracer().Start(
			ctx,
			req.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", req.Method),
				attribute.String("http.route", route),
				attribute.String("correlation_id", log.CorrelationIDFromContext(ctx)),
			),
		)
		defer span.End()

		c.SetRequest(req.WithContext(ctx))

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		status := c.Response().Status
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, strconv.Itoa(status))
		}

		return nil
	}
}

func LoggingMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log.FromContext(c.Request().Context()).
			WithField("method", c.Request().Method).
			WithField("path", c.Request().URL.Path).
			Debug("Handling a request")

		return next(c)
	}
}

func IdempotencyKeyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Header.Get(idempotencyKeyHeader)
		if key != "" {
			ctx := idempotency.WithKey(c.Request().Context(), key)
			c.SetRequest(c.Request().WithContext(ctx))
		}

		return next(c)
	}
}

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)
		if err != nil {
			// resolve the status before it is counted
			c.Error(err)
		}

		route := c.Path()
		httpRequestDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(
			c.Request().Method,
			route,
			strconv.Itoa(c.Response().Status),
		).Inc()

		return nil
	}
}
