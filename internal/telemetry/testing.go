package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestTelemetry is a Telemetry whose spans and metrics stay in memory.
// The providers are not installed globally, so tests can run in parallel.
type TestTelemetry struct {
	*Telemetry

	SpanRecorder *tracetest.SpanRecorder
	MetricReader *sdkmetric.ManualReader
}

// NewTestTelemetry returns an enabled, healthy TestTelemetry.
func NewTestTelemetry() *TestTelemetry {
	cfg := NewDefaultConfig()
	cfg.Enabled = true

	rec := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()

	return &TestTelemetry{
		Telemetry: &Telemetry{
			cfg:    cfg,
			tp:     sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)),
			mp:     sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
			status: HealthStatus{Healthy: true},
		},
		SpanRecorder: rec,
		MetricReader: reader,
	}
}

// Spans returns the ended spans in end order.
func (tt *TestTelemetry) Spans() []sdktrace.ReadOnlySpan {
	return tt.SpanRecorder.Ended()
}

// SpanByName returns the first ended span called name, or nil.
func (tt *TestTelemetry) SpanByName(name string) sdktrace.ReadOnlySpan {
	for _, s := range tt.Spans() {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// AssertSpanExists fails tb unless a span called name has ended.
func (tt *TestTelemetry) AssertSpanExists(tb testing.TB, name string) {
	tb.Helper()
	if tt.SpanByName(name) != nil {
		return
	}
	var seen []string
	for _, s := range tt.Spans() {
		seen = append(seen, s.Name())
	}
	tb.Errorf("span %q not recorded; have %v", name, seen)
}

// AssertSpanAttribute fails tb unless span spanName carries key = want.
func (tt *TestTelemetry) AssertSpanAttribute(tb testing.TB, spanName, key string, want any) {
	tb.Helper()
	s := tt.SpanByName(spanName)
	if s == nil {
		tb.Fatalf("span %q not recorded", spanName)
	}
	for _, kv := range s.Attributes() {
		if string(kv.Key) != key {
			continue
		}
		if got := kv.Value.AsInterface(); got != want {
			tb.Errorf("%s[%s] = %v, want %v", spanName, key, got, want)
		}
		return
	}
	tb.Errorf("%s has no attribute %q", spanName, key)
}

// CounterValue collects once and sums the int64 counter name over every
// data point whose attributes include attrs.
func (tt *TestTelemetry) CounterValue(tb testing.TB, name string, attrs ...attribute.KeyValue) int64 {
	tb.Helper()
	var rm metricdata.ResourceMetrics
	if err := tt.MetricReader.Collect(context.Background(), &rm); err != nil {
		tb.Fatalf("collect: %v", err)
	}

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if m.Name != name || !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				if includes(dp.Attributes, attrs) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func includes(set attribute.Set, attrs []attribute.KeyValue) bool {
	for _, kv := range attrs {
		if v, ok := set.Value(kv.Key); !ok || v != kv.Value {
			return false
		}
	}
	return true
}
