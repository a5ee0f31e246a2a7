package telemetry

import (
	"context"
	"crypto/tls"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc/credentials"
)

const protocolHTTP = "http"

func newResource(cfg *Config) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)
}

// transport is how the exporters reach the collector.
type transport struct {
	endpoint string
	http     bool
	insecure bool
	tls      *tls.Config
}

func transportFor(cfg *Config) transport {
	tr := transport{endpoint: cfg.Endpoint, http: cfg.Protocol == protocolHTTP, insecure: cfg.Insecure}
	if tr.http {
		tr.endpoint = stripScheme(cfg.Endpoint)
	}
	if !tr.insecure && cfg.TLSSkipVerify {
		tr.tls = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for private CAs
	}
	return tr
}

func (tr transport) spanExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	if tr.http {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(tr.endpoint)}
		switch {
		case tr.insecure:
			opts = append(opts, otlptracehttp.WithInsecure())
		case tr.tls != nil:
			opts = append(opts, otlptracehttp.WithTLSClientConfig(tr.tls))
		}
		return otlptracehttp.New(ctx, opts...)
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(tr.endpoint)}
	switch {
	case tr.insecure:
		opts = append(opts, otlptracegrpc.WithInsecure())
	case tr.tls != nil:
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(tr.tls)))
	}
	return otlptracegrpc.New(ctx, opts...)
}

// cumulative keeps counters monotonic for Prometheus-style backends.
func cumulative(sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (tr transport) metricExporter(ctx context.Context) (sdkmetric.Exporter, error) {
	if tr.http {
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(tr.endpoint),
			otlpmetrichttp.WithTemporalitySelector(cumulative),
		}
		switch {
		case tr.insecure:
			opts = append(opts, otlpmetrichttp.WithInsecure())
		case tr.tls != nil:
			opts = append(opts, otlpmetrichttp.WithTLSClientConfig(tr.tls))
		}
		return otlpmetrichttp.New(ctx, opts...)
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(tr.endpoint),
		otlpmetricgrpc.WithTemporalitySelector(cumulative),
	}
	switch {
	case tr.insecure:
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	case tr.tls != nil:
		opts = append(opts, otlpmetricgrpc.WithTLSCredentials(credentials.NewTLS(tr.tls)))
	}
	return otlpmetricgrpc.New(ctx, opts...)
}

// sampler honours an upstream sampling decision and otherwise samples
// rate of new traces.
func sampler(rate float64) sdktrace.Sampler {
	root := sdktrace.TraceIDRatioBased(rate)
	if rate >= 1 {
		root = sdktrace.AlwaysSample()
	} else if rate <= 0 {
		root = sdktrace.NeverSample()
	}
	return sdktrace.ParentBased(root)
}

// newTracerProvider batches spans to exp, or to an OTLP exporter when exp
// is nil.
func newTracerProvider(ctx context.Context, cfg *Config, res *resource.Resource, exp sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	if exp == nil {
		var err error
		if exp, err = transportFor(cfg).spanExporter(ctx); err != nil {
			return nil, fmt.Errorf("span exporter: %w", err)
		}
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SamplingRate)),
	), nil
}

// newMeterProvider returns nil, nil when metrics export is off.
func newMeterProvider(ctx context.Context, cfg *Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	if !cfg.Metrics.Enabled {
		return nil, nil
	}
	exp, err := transportFor(cfg).metricExporter(ctx)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.Metrics.ExportInterval.Duration()))
	return sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader)), nil
}
