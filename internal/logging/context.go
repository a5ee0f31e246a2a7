package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ctxKey identifies one correlation value and doubles as its log field
// name.
type ctxKey string

const (
	runIDKey     ctxKey = "run.id"
	sourceKey    ctxKey = "transcript.source"
	requestIDKey ctxKey = "request.id"
)

// correlationKeys is the order fields appear in log lines.
var correlationKeys = []ctxKey{runIDKey, sourceKey, requestIDKey}

// ContextFields returns the trace ids and correlation values carried by
// ctx as zap fields.
func ContextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.Stringer("trace_id", sc.TraceID()),
			zap.Stringer("span_id", sc.SpanID()),
		)
	}
	for _, key := range correlationKeys {
		if v := lookup(ctx, key); v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}
	return fields
}

func lookup(ctx context.Context, key ctxKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// WithRunID tags ctx with a pipeline run id.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run id, or "".
func RunIDFromContext(ctx context.Context) string { return lookup(ctx, runIDKey) }

// WithSource tags ctx with where the transcript came from: a file path,
// "http" or "mcp".
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// SourceFromContext returns the transcript source, or "".
func SourceFromContext(ctx context.Context) string { return lookup(ctx, sourceKey) }

// WithRequestID tags ctx with an HTTP request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id, or "".
func RequestIDFromContext(ctx context.Context) string { return lookup(ctx, requestIDKey) }

// Ctx returns logger with the fields of ContextFields attached, or logger
// itself when ctx carries none.
func Ctx(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if fields := ContextFields(ctx); len(fields) > 0 {
		return logger.With(fields...)
	}
	return logger
}
