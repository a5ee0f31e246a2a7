package mcp

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/actiond/internal/tasks"
)

const instrumentationName = "github.com/fyrsmithlabs/actiond/internal/mcp"

// Error reasons recorded on actiond.mcp.tool.errors_total.
const (
	reasonValidation = "validation_error"
	reasonTimeout    = "timeout"
	reasonCanceled   = "canceled"
	reasonInternal   = "internal_error"
)

// Metrics records tool calls. A nil *Metrics or a missing instrument
// records nothing.
type Metrics struct {
	calls    metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

// NewMetrics creates tool metrics on the global meter.
func NewMetrics(logger *zap.Logger) *Metrics {
	return newMetrics(otel.Meter(instrumentationName), logger)
}

func newMetrics(meter metric.Meter, logger *zap.Logger) *Metrics {
	m := &Metrics{}
	var errs []error
	var err error

	m.calls, err = meter.Int64Counter("actiond.mcp.tool.invocations_total",
		metric.WithDescription("MCP tool calls by tool"),
		metric.WithUnit("{call}"))
	errs = append(errs, err)

	m.failures, err = meter.Int64Counter("actiond.mcp.tool.errors_total",
		metric.WithDescription("Failed MCP tool calls by tool and reason"),
		metric.WithUnit("{call}"))
	errs = append(errs, err)

	m.latency, err = meter.Float64Histogram("actiond.mcp.tool.duration_seconds",
		metric.WithDescription("MCP tool call latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5))
	errs = append(errs, err)

	m.inFlight, err = meter.Int64UpDownCounter("actiond.mcp.tool.active_requests",
		metric.WithDescription("MCP tool calls in progress"),
		metric.WithUnit("{call}"))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		logger.Warn("failed to create some mcp metrics", zap.Error(err))
	}
	return m
}

// track marks a call to tool as started. The returned func ends it and
// records err, if any.
func (m *Metrics) track(ctx context.Context, tool string) func(err error) {
	if m == nil {
		return func(error) {}
	}
	start := time.Now()
	toolAttr := metric.WithAttributes(attribute.String("tool", tool))
	if m.inFlight != nil {
		m.inFlight.Add(ctx, 1, toolAttr)
	}

	return func(err error) {
		if m.inFlight != nil {
			m.inFlight.Add(ctx, -1, toolAttr)
		}
		if m.calls != nil {
			m.calls.Add(ctx, 1, toolAttr)
		}
		if m.latency != nil {
			m.latency.Record(ctx, time.Since(start).Seconds(), toolAttr)
		}
		if err != nil && m.failures != nil {
			m.failures.Add(ctx, 1, metric.WithAttributes(
				attribute.String("tool", tool),
				attribute.String("reason", errorReason(err))))
		}
	}
}

// errorReason maps err to a low-cardinality reason label.
func errorReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, tasks.ErrInvalidInput):
		return reasonValidation
	case errors.Is(err, context.DeadlineExceeded):
		return reasonTimeout
	case errors.Is(err, context.Canceled):
		return reasonCanceled
	default:
		return reasonInternal
	}
}
