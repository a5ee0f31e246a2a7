// Package events publishes completed pipeline runs to NATS.
//
// Subjects:
//
//	{prefix}.runs.{run_id}.completed    the full run as JSON
//	{prefix}.tasks.{assignee}.assigned  one TaskEvent per task
//
// The assignee token is a slug of the member name ("unassigned" when no
// member was chosen), so consumers can subscribe to {prefix}.tasks.mohit.>
// or {prefix}.tasks.*.assigned.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/actiond/internal/config"
	"github.com/fyrsmithlabs/actiond/internal/pipeline"
	"github.com/fyrsmithlabs/actiond/internal/tasks"
)

const defaultTimeout = 5 * time.Second

// TaskEvent is published once per task in a run.
type TaskEvent struct {
	RunID  uuid.UUID    `json:"run_id"`
	Source string       `json:"source,omitempty"`
	Task   tasks.Record `json:"task"`
}

// NopPublisher discards runs.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, *pipeline.Run) error { return nil }

// NATSPublisher publishes runs on a NATS connection.
type NATSPublisher struct {
	nc      *nats.Conn
	prefix  string
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures a NATSPublisher.
type Option func(*NATSPublisher)

// WithTimeout bounds the flush after each run when ctx has no deadline.
func WithTimeout(d time.Duration) Option {
	return func(p *NATSPublisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *NATSPublisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewNATSPublisher creates a publisher using subjects under prefix.
func NewNATSPublisher(nc *nats.Conn, prefix string, opts ...Option) *NATSPublisher {
	p := &NATSPublisher{
		nc:      nc,
		prefix:  strings.Trim(prefix, "."),
		timeout: defaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect dials the NATS server described by cfg.
func Connect(cfg config.EventsConfig, logger *zap.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("actiond"),
		nats.Timeout(cfg.Timeout.Duration()),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("disconnected from NATS", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("reconnected to NATS", zap.String("url", nc.ConnectedUrlRedacted()))
		}),
	}
	if cfg.Token.IsSet() {
		opts = append(opts, nats.Token(cfg.Token.Value()))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}
	return nc, nil
}

// Publish sends the run and one event per task, then flushes.
func (p *NATSPublisher) Publish(ctx context.Context, run *pipeline.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	if err := p.nc.Publish(RunSubject(p.prefix, run.ID), data); err != nil {
		return fmt.Errorf("publish run: %w", err)
	}

	for _, task := range run.Tasks {
		data, err := json.Marshal(TaskEvent{RunID: run.ID, Source: run.Source, Task: task})
		if err != nil {
			return fmt.Errorf("marshal task %d: %w", task.ID, err)
		}
		if err := p.nc.Publish(TaskSubject(p.prefix, task.Assignee()), data); err != nil {
			return fmt.Errorf("publish task %d: %w", task.ID, err)
		}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	p.logger.Debug("published run",
		zap.String("run.id", run.ID.String()),
		zap.Int("tasks", len(run.Tasks)))
	return nil
}

// RunSubject returns the subject a completed run is published on.
func RunSubject(prefix string, id uuid.UUID) string {
	return fmt.Sprintf("%s.runs.%s.completed", prefix, id)
}

// TaskSubject returns the subject a task for assignee is published on.
func TaskSubject(prefix, assignee string) string {
	return fmt.Sprintf("%s.tasks.%s.assigned", prefix, Slug(assignee))
}

// Slug turns a name into a single subject token: lowercase letters and
// digits in any script, joined by dashes. Names with neither become
// "unassigned".
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "unassigned"
	}
	return slug
}

var (
	_ pipeline.Publisher = (*NATSPublisher)(nil)
	_ pipeline.Publisher = NopPublisher{}
)
