// Package metrics defines the Prometheus metrics exposed on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	defaultMetrics *Metrics
	defaultOnce    sync.Once
)

// Metrics holds Prometheus metrics for extraction runs.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	TasksExtracted  *prometheus.CounterVec
	TasksAssigned   *prometheus.CounterVec
	SecretsRedacted prometheus.Counter
	WatchEvents     *prometheus.CounterVec
}

// Assignment methods recorded by TasksAssigned.
const (
	AssignedByMention = "mention"
	AssignedByScore   = "score"
	AssignedNone      = "unassigned"
)

// Default returns metrics registered once on the default registerer.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New creates metrics registered on reg.
//
// Metrics:
//   - actiond_runs_total{status} - pipeline runs by outcome ("ok", "invalid_input", "error")
//   - actiond_run_duration_seconds - pipeline run latency
//   - actiond_tasks_extracted_total{priority} - extracted tasks by priority
//   - actiond_tasks_assigned_total{method} - owners by how they were chosen
//   - actiond_secrets_redacted_total - secrets removed from transcripts
//   - actiond_watch_events_total{result} - watched transcript files by outcome
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "actiond_runs_total",
				Help: "Total number of extraction pipeline runs",
			},
			[]string{"status"},
		),
		RunDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "actiond_run_duration_seconds",
				Help:    "Duration of extraction pipeline runs in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		TasksExtracted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "actiond_tasks_extracted_total",
				Help: "Total number of tasks extracted from transcripts",
			},
			[]string{"priority"},
		),
		TasksAssigned: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "actiond_tasks_assigned_total",
				Help: "Total number of task owners set, by method",
			},
			[]string{"method"},
		),
		SecretsRedacted: f.NewCounter(
			prometheus.CounterOpts{
				Name: "actiond_secrets_redacted_total",
				Help: "Total number of secrets redacted from transcripts",
			},
		),
		WatchEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "actiond_watch_events_total",
				Help: "Total number of watched transcript files processed",
			},
			[]string{"result"},
		),
	}
}
