package monitoring

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TraceFields returns the trace and span IDs of the active span as log
// fields so log lines can be joined with exported traces. It returns nil
// when ctx carries no sampled span.
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// WithTrace returns logger annotated with the trace of ctx
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if fields := TraceFields(ctx); fields != nil {
		return logger.With(fields...)
	}
	return logger
}
