package http

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/actiond/internal/http"

// unmatchedRoute labels requests that matched no route, keeping endpoint
// cardinality bounded by the route table.
const unmatchedRoute = "unmatched"

// requestMetrics records one data point per request, keyed by method,
// route and final status code.
type requestMetrics struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	bodySize metric.Int64Histogram
	inFlight metric.Int64UpDownCounter
}

// newRequestMetrics creates request metrics on meter, or on the global meter
// when meter is nil. Instruments that fail to register are skipped.
func newRequestMetrics(meter metric.Meter, logger *zap.Logger) *requestMetrics {
	if meter == nil {
		meter = otel.Meter(httpInstrumentationName)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &requestMetrics{}
	var errs []error
	var err error

	m.requests, err = meter.Int64Counter("actiond.http.requests_total",
		metric.WithDescription("HTTP requests by method, endpoint and status"),
		metric.WithUnit("{request}"))
	errs = append(errs, err)

	m.latency, err = meter.Float64Histogram("actiond.http.request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5))
	errs = append(errs, err)

	m.bodySize, err = meter.Int64Histogram("actiond.http.response_size_bytes",
		metric.WithDescription("HTTP response body size"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(256, 1024, 4096, 16384, 65536, 262144))
	errs = append(errs, err)

	m.inFlight, err = meter.Int64UpDownCounter("actiond.http.active_requests",
		metric.WithDescription("HTTP requests in progress"),
		metric.WithUnit("{request}"))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		logger.Warn("failed to create some http metrics", zap.Error(err))
	}
	return m
}

// middleware records request metrics. Handler errors are rendered here so
// the recorded status is the one the client sees.
func (m *requestMetrics) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			start := time.Now()
			if m.inFlight != nil {
				m.inFlight.Add(ctx, 1)
				defer m.inFlight.Add(ctx, -1)
			}

			if err := next(c); err != nil {
				c.Error(err)
			}

			res := c.Response()
			attrs := metric.WithAttributes(
				attribute.String("method", c.Request().Method),
				attribute.String("endpoint", routeLabel(c.Path())),
				attribute.Int("status", res.Status),
			)
			if m.requests != nil {
				m.requests.Add(ctx, 1, attrs)
			}
			if m.latency != nil {
				m.latency.Record(ctx, time.Since(start).Seconds(), attrs)
			}
			if m.bodySize != nil {
				m.bodySize.Record(ctx, res.Size, attrs)
			}
			return nil
		}
	}
}

// routeLabel returns the matched route, or unmatchedRoute.
func routeLabel(path string) string {
	if path == "" {
		return unmatchedRoute
	}
	return path
}
