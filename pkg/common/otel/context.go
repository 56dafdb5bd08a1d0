package otel

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/orderflow/pkg/common/logger"
)

const zeroTraceID = "00000000000000000000000000000000"

// GetTraceID returns the trace id from the current span context.
func GetTraceID(ctx context.Context) string {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return zeroTraceID
}

// TraceIDFn adapts GetTraceID for the logger.
func TraceIDFn() logger.TraceIDFn {
	return func(ctx context.Context) string { return GetTraceID(ctx) }
}
