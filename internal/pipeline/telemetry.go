package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fyrsmithlabs/actiond/internal/tasks"
)

// InstrumentationName is the name used for OTEL instrumentation.
const InstrumentationName = "github.com/fyrsmithlabs/actiond/internal/pipeline"

// Run statuses recorded on metrics.
const (
	StatusOK           = "ok"
	StatusInvalidInput = "invalid_input"
	StatusError        = "error"
)

// Metrics provides OpenTelemetry metrics for pipeline runs.
type Metrics struct {
	runsTotal   metric.Int64Counter
	tasksTotal  metric.Int64Counter
	runDuration metric.Float64Histogram
}

// NewMetrics creates pipeline metrics on meter. If meter is nil, the
// global meter provider is used.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	m := &Metrics{}
	var err error

	m.runsTotal, err = meter.Int64Counter(
		"actiond.pipeline.runs.total",
		metric.WithDescription("Total number of pipeline runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	m.tasksTotal, err = meter.Int64Counter(
		"actiond.pipeline.tasks.total",
		metric.WithDescription("Total number of tasks extracted"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, err
	}

	m.runDuration, err = meter.Float64Histogram(
		"actiond.pipeline.run.duration.seconds",
		metric.WithDescription("Duration of pipeline runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(ctx context.Context, status string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.runsTotal.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordTasks counts records by priority.
func (m *Metrics) RecordTasks(ctx context.Context, records []tasks.Record) {
	if m == nil {
		return
	}
	for i := range records {
		m.tasksTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("priority", string(records[i].Priority)),
		))
	}
}
