package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry owns the tracer and meter providers used by the pipeline and
// the HTTP server.
//
// A provider that cannot be built is left out and recorded as a problem;
// the process keeps running on the global no-op providers.
type Telemetry struct {
	cfg *Config

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider

	mu     sync.RWMutex
	status HealthStatus
}

// HealthStatus is the telemetry section of the /health response.
type HealthStatus struct {
	Healthy  bool     `json:"healthy"`
	Degraded bool     `json:"degraded"`
	Problems []string `json:"problems,omitempty"`
}

// Option configures New.
type Option func(*builder)

type builder struct {
	spans sdktrace.SpanExporter
}

// WithSpanExporter replaces the OTLP span exporter, typically with an
// in-memory exporter in tests.
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return func(b *builder) { b.spans = exp }
}

// New builds the providers described by cfg and installs them as the
// global providers. A disabled config yields an instance that hands out
// the global no-op tracer and meter.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	var b builder
	for _, opt := range opts {
		opt(&b)
	}

	t := &Telemetry{cfg: cfg, status: HealthStatus{Healthy: true}}
	if !cfg.Enabled {
		return t, nil
	}

	res := newResource(cfg)

	tp, err := newTracerProvider(ctx, cfg, res, b.spans)
	if err != nil {
		t.problem("tracing disabled: %v", err)
	} else {
		t.tp = tp
		otel.SetTracerProvider(tp)
	}

	mp, err := newMeterProvider(ctx, cfg, res)
	switch {
	case err != nil:
		t.problem("metrics disabled: %v", err)
	case mp != nil:
		t.mp = mp
		otel.SetMeterProvider(mp)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return t, nil
}

// Tracer returns a named tracer. Without an SDK provider it delegates to
// the global one.
func (t *Telemetry) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if t != nil && t.tp != nil {
		return t.tp.Tracer(name, opts...)
	}
	return otel.GetTracerProvider().Tracer(name, opts...)
}

// Meter returns a named meter. Without an SDK provider it delegates to the
// global one.
func (t *Telemetry) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if t != nil && t.mp != nil {
		return t.mp.Meter(name, opts...)
	}
	return otel.GetMeterProvider().Meter(name, opts...)
}

// lifecycle is the part of the SDK providers Shutdown and ForceFlush use.
type lifecycle interface {
	Shutdown(context.Context) error
	ForceFlush(context.Context) error
}

func (t *Telemetry) each(fn func(kind string, p lifecycle) error) error {
	var errs []error
	if t.tp != nil {
		if err := fn("traces", t.tp); err != nil {
			errs = append(errs, err)
		}
	}
	if t.mp != nil {
		if err := fn("metrics", t.mp); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Shutdown flushes and stops both providers. Without a deadline on ctx the
// configured shutdown timeout applies. The instance reports unhealthy
// afterwards.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok && t.cfg != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Shutdown.Timeout.Duration())
		defer cancel()
	}

	err := t.each(func(kind string, p lifecycle) error {
		if err := p.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown %s: %w", kind, err)
		}
		return nil
	})

	t.mu.Lock()
	t.status.Healthy = false
	t.mu.Unlock()
	return err
}

// ForceFlush exports everything buffered so far.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.each(func(kind string, p lifecycle) error {
		if err := p.ForceFlush(ctx); err != nil {
			return fmt.Errorf("flush %s: %w", kind, err)
		}
		return nil
	})
}

// Health returns a snapshot of the telemetry status. A nil instance is
// reported as degraded.
func (t *Telemetry) Health() HealthStatus {
	if t == nil {
		return HealthStatus{Degraded: true}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.status
	s.Problems = append([]string(nil), t.status.Problems...)
	return s
}

// IsEnabled reports whether telemetry was configured on and has not been
// shut down.
func (t *Telemetry) IsEnabled() bool {
	if t == nil || t.cfg == nil || !t.cfg.Enabled {
		return false
	}
	return t.Health().Healthy
}

func (t *Telemetry) problem(format string, args ...any) {
	t.mu.Lock()
	t.status.Degraded = true
	t.status.Problems = append(t.status.Problems, fmt.Sprintf(format, args...))
	t.mu.Unlock()
}
