// Package pipeline runs a transcript through redaction, extraction and
// assignment and stamps the result as a Run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/actiond/internal/assignment"
	"github.com/fyrsmithlabs/actiond/internal/extraction"
	"github.com/fyrsmithlabs/actiond/internal/logging"
	"github.com/fyrsmithlabs/actiond/internal/metrics"
	"github.com/fyrsmithlabs/actiond/internal/secrets"
	"github.com/fyrsmithlabs/actiond/internal/tasks"
)

// Publisher receives every completed run.
type Publisher interface {
	Publish(ctx context.Context, run *Run) error
}

// Request is one transcript to process against a roster.
type Request struct {
	// Transcript is required. A nil transcript is rejected; an empty one
	// yields a run with no tasks.
	Transcript *string
	Roster     tasks.Roster
	// Source names where the transcript came from, e.g. a file path.
	Source string
}

// Run is the result of processing one transcript.
type Run struct {
	ID          uuid.UUID         `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Source      string            `json:"source,omitempty"`
	TaskCount   int               `json:"task_count"`
	Tasks       []tasks.Record    `json:"tasks"`
	Summary     tasks.Summary     `json:"summary"`
	Redactions  []secrets.Finding `json:"redactions,omitempty"`
}

// Service composes the extractor and assigner. It is safe for concurrent
// use.
type Service struct {
	extractor  *extraction.Extractor
	assignCfg  assignment.Config
	redactor   *secrets.Redactor
	publisher  Publisher
	clock      extraction.Clock
	newID      func() uuid.UUID
	logger     *zap.Logger
	tracer     trace.Tracer
	meter      metric.Meter
	metrics    *Metrics
	promMetric *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithAssignmentConfig overrides the scoring weights and role buckets.
func WithAssignmentConfig(cfg assignment.Config) Option {
	return func(s *Service) {
		s.assignCfg = cfg
	}
}

// WithRedactor enables secret redaction before extraction.
func WithRedactor(r *secrets.Redactor) Option {
	return func(s *Service) {
		s.redactor = r
	}
}

// WithPublisher sets where completed runs are sent.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithClock sets the time source for GeneratedAt and relative deadlines.
func WithClock(c extraction.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithIDGenerator overrides run id generation.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracer sets the tracer. Defaults to the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithMeter sets the meter for OTEL metrics. Defaults to the global provider.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.meter = m
	}
}

// WithPrometheus records run metrics on m.
func WithPrometheus(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.promMetric = m
	}
}

// NewService creates a pipeline over the extraction rules in cfg.
func NewService(cfg extraction.Config, opts ...Option) (*Service, error) {
	s := &Service{
		assignCfg: assignment.DefaultConfig(),
		clock:     extraction.SystemClock,
		newID:     uuid.New,
		logger:    zap.NewNop(),
		tracer:    otel.Tracer(InstrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.assignCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assignment config: %w", err)
	}

	extractor, err := extraction.NewExtractor(cfg,
		extraction.WithClock(s.clock),
		extraction.WithLogger(s.logger.Named("extraction")))
	if err != nil {
		return nil, err
	}
	s.extractor = extractor

	m, err := NewMetrics(s.meter)
	if err != nil {
		s.logger.Warn("failed to create pipeline metrics", zap.Error(err))
	}
	s.metrics = m

	return s, nil
}

// Extractor returns the configured extractor.
func (s *Service) Extractor() *extraction.Extractor {
	return s.extractor
}

// Assigner builds an assigner for roster with the service's scoring rules.
func (s *Service) Assigner(roster tasks.Roster) (*assignment.Assigner, error) {
	return assignment.NewAssigner(roster,
		assignment.WithConfig(s.assignCfg),
		assignment.WithLogger(s.logger.Named("assignment")))
}

// Process extracts and assigns the tasks in req.Transcript.
//
// A nil transcript and an empty or malformed roster are rejected with an
// error matching tasks.ErrInvalidInput. A publish failure is logged and
// does not fail the run.
func (s *Service) Process(ctx context.Context, req Request) (*Run, error) {
	start := time.Now()
	status := StatusError

	ctx, span := s.tracer.Start(ctx, "pipeline.Process", trace.WithAttributes(
		attribute.String("transcript.source", req.Source),
		attribute.Int("roster.size", len(req.Roster)),
	))
	defer func() {
		s.recordRun(ctx, status, time.Since(start))
		span.End()
	}()

	run, err := s.process(ctx, span, req)
	if err != nil {
		if errors.Is(err, tasks.ErrInvalidInput) {
			status = StatusInvalidInput
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	status = StatusOK
	span.SetStatus(codes.Ok, "")
	return run, nil
}

func (s *Service) process(ctx context.Context, span trace.Span, req Request) (*Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Transcript == nil {
		return nil, &tasks.InvalidInputError{Field: "transcript", Reason: "missing"}
	}
	if err := req.Roster.Validate(); err != nil {
		return nil, err
	}

	run := &Run{
		ID:          s.newID(),
		GeneratedAt: s.clock.Now().UTC(),
		Source:      req.Source,
	}
	span.SetAttributes(attribute.String("run.id", run.ID.String()))
	ctx = logging.WithSource(logging.WithRunID(ctx, run.ID.String()), req.Source)
	logger := logging.Ctx(ctx, s.logger)

	text := *req.Transcript
	if s.redactor != nil {
		res, err := s.redactor.Redact(text)
		if err != nil {
			return nil, fmt.Errorf("redacting transcript: %w", err)
		}
		text = res.Text
		run.Redactions = res.Findings
		if s.promMetric != nil {
			s.promMetric.SecretsRedacted.Add(float64(len(res.Findings)))
		}
		if res.Redacted() {
			logger.Info("redacted secrets from transcript", zap.Any("rules", res.RuleCounts()))
		}
	}

	roster := req.Roster.Normalize()

	records, err := s.extract(ctx, text, roster)
	if err != nil {
		return nil, err
	}

	mentioned := 0
	for i := range records {
		if records[i].IsAssigned() {
			mentioned++
		}
	}

	records, err = s.assign(ctx, records, roster)
	if err != nil {
		return nil, err
	}

	run.Tasks = records
	run.TaskCount = len(records)
	run.Summary = tasks.Summarize(records)

	s.metrics.RecordTasks(ctx, records)
	s.recordAssignments(records, mentioned)

	logger.Info("processed transcript",
		zap.Int("tasks", run.TaskCount),
		zap.Int("mentioned", mentioned),
		zap.Int("unassigned", run.Summary.ByAssignee[tasks.Unassigned]))

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, run); err != nil {
			span.AddEvent("publish failed", trace.WithAttributes(attribute.String("error", err.Error())))
			logger.Warn("failed to publish run", zap.Error(err))
		}
	}

	return run, nil
}

func (s *Service) extract(ctx context.Context, text string, roster tasks.Roster) ([]tasks.Record, error) {
	_, span := s.tracer.Start(ctx, "extraction.Extract")
	defer span.End()

	records, err := s.extractor.ExtractText(text, roster)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("tasks.count", len(records)))
	return records, nil
}

func (s *Service) assign(ctx context.Context, records []tasks.Record, roster tasks.Roster) ([]tasks.Record, error) {
	_, span := s.tracer.Start(ctx, "assignment.Assign")
	defer span.End()

	assigner, err := s.Assigner(roster)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	records = assigner.Assign(records)
	span.SetAttributes(attribute.Int("tasks.count", len(records)))
	return records, nil
}

func (s *Service) recordRun(ctx context.Context, status string, d time.Duration) {
	s.metrics.RecordRun(ctx, status, d)
	if s.promMetric != nil {
		s.promMetric.RunsTotal.WithLabelValues(status).Inc()
		s.promMetric.RunDuration.Observe(d.Seconds())
	}
}

func (s *Service) recordAssignments(records []tasks.Record, mentioned int) {
	if s.promMetric == nil {
		return
	}
	unassigned := 0
	for i := range records {
		s.promMetric.TasksExtracted.WithLabelValues(string(records[i].Priority)).Inc()
		if records[i].Assignee() == tasks.Unassigned {
			unassigned++
		}
	}
	s.promMetric.TasksAssigned.WithLabelValues(metrics.AssignedByMention).Add(float64(mentioned))
	s.promMetric.TasksAssigned.WithLabelValues(metrics.AssignedByScore).Add(float64(len(records) - mentioned - unassigned))
	s.promMetric.TasksAssigned.WithLabelValues(metrics.AssignedNone).Add(float64(unassigned))
}
