package otel

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ahrav/orderflow/pkg/common/logger"
)

func TestInitTelemetry_WithoutEndpoint(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	providers, teardown, err := InitTelemetry(logger.Noop(), Config{ServiceName: "orderflow", Registerer: reg})
	require.NoError(t, err)
	require.NotNil(t, teardown)
	defer teardown(context.Background())

	ctx, span := providers.Tracer.Tracer("test").Start(context.Background(), "noop")
	defer span.End()
	assert.False(t, span.SpanContext().IsValid())
	assert.Equal(t, zeroTraceID, GetTraceID(ctx))

	// Metrics still reach the Prometheus registry.
	counter, err := providers.Meter.Meter("test").Int64Counter("orders_served")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "orders_served") {
			continue
		}
		found = true
		require.Len(t, mf.GetMetric(), 1)
		assert.Equal(t, 3.0, mf.GetMetric()[0].GetCounter().GetValue())
	}
	assert.True(t, found, "orders_served not exported to prometheus")
}

func TestGetTraceID(t *testing.T) {
	t.Parallel()

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := AddSpan(context.Background(), tp.Tracer("test"), "op")
	defer span.End()

	id := GetTraceID(ctx)
	assert.Equal(t, span.SpanContext().TraceID().String(), id)
	assert.NotEqual(t, zeroTraceID, id)
	assert.Equal(t, id, TraceIDFn()(ctx))
}
