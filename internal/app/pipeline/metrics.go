package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	domain "github.com/ahrav/orderflow/internal/domain/pipeline"
)

// PipelineMetrics defines the metrics operations recorded by the actors and
// the coordinator.
type PipelineMetrics interface {
	// Queue metrics
	IncItemsEnqueued(ctx context.Context, kind domain.Kind)
	IncItemsDequeued(ctx context.Context, kind domain.Kind)
	ObserveEnqueueWait(ctx context.Context, d time.Duration)
	ObserveDequeueWait(ctx context.Context, d time.Duration)

	// Processing metrics
	IncItemsCompleted(ctx context.Context, kind domain.Kind)
	TrackProcessing(ctx context.Context, kind domain.Kind, f func() error) error

	// Actor metrics
	AddActiveActors(ctx context.Context, role domain.ActorRole, delta int)
	IncActorFailures(ctx context.Context, role domain.ActorRole)

	// Run metrics
	ObserveRunDuration(ctx context.Context, d time.Duration)
}

type pipelineMetrics struct {
	itemsEnqueued  metric.Int64Counter
	itemsDequeued  metric.Int64Counter
	itemsCompleted metric.Int64Counter
	queueDepth     metric.Int64UpDownCounter
	enqueueWait    metric.Float64Histogram
	dequeueWait    metric.Float64Histogram

	activeProcessing metric.Int64UpDownCounter
	processTime      metric.Float64Histogram

	activeActors  metric.Int64UpDownCounter
	actorFailures metric.Int64Counter

	runDuration metric.Float64Histogram
}

const namespace = "orderflow"

// NewPipelineMetrics creates the pipeline instruments on mp.
func NewPipelineMetrics(mp metric.MeterProvider) (PipelineMetrics, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	m := new(pipelineMetrics)
	var err error

	if m.itemsEnqueued, err = meter.Int64Counter(
		"items_enqueued_total",
		metric.WithDescription("Total number of items placed on the queue"),
	); err != nil {
		return nil, err
	}

	if m.itemsDequeued, err = meter.Int64Counter(
		"items_dequeued_total",
		metric.WithDescription("Total number of items taken off the queue"),
	); err != nil {
		return nil, err
	}

	if m.itemsCompleted, err = meter.Int64Counter(
		"items_completed_total",
		metric.WithDescription("Total number of items fully processed by consumers"),
	); err != nil {
		return nil, err
	}

	if m.queueDepth, err = meter.Int64UpDownCounter(
		"queue_depth",
		metric.WithDescription("Number of items currently waiting in the queue"),
	); err != nil {
		return nil, err
	}

	if m.enqueueWait, err = meter.Float64Histogram(
		"enqueue_wait_seconds",
		metric.WithDescription("Time producers spend blocked waiting for a free slot"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.dequeueWait, err = meter.Float64Histogram(
		"dequeue_wait_seconds",
		metric.WithDescription("Time consumers spend blocked waiting for an item"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.activeProcessing, err = meter.Int64UpDownCounter(
		"items_in_progress",
		metric.WithDescription("Number of items currently being processed"),
	); err != nil {
		return nil, err
	}

	if m.processTime, err = meter.Float64Histogram(
		"item_process_duration_seconds",
		metric.WithDescription("Time taken to process each item"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.activeActors, err = meter.Int64UpDownCounter(
		"active_actors",
		metric.WithDescription("Number of running producer and consumer actors"),
	); err != nil {
		return nil, err
	}

	if m.actorFailures, err = meter.Int64Counter(
		"actor_failures_total",
		metric.WithDescription("Total number of actors that failed"),
	); err != nil {
		return nil, err
	}

	if m.runDuration, err = meter.Float64Histogram(
		"run_duration_seconds",
		metric.WithDescription("Wall time of a complete pipeline run"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func kindAttr(kind domain.Kind) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("kind", kind.String()))
}

func roleAttr(role domain.ActorRole) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("role", role.String()))
}

func (m *pipelineMetrics) IncItemsEnqueued(ctx context.Context, kind domain.Kind) {
	m.itemsEnqueued.Add(ctx, 1, kindAttr(kind))
	m.queueDepth.Add(ctx, 1)
}

func (m *pipelineMetrics) IncItemsDequeued(ctx context.Context, kind domain.Kind) {
	m.itemsDequeued.Add(ctx, 1, kindAttr(kind))
	m.queueDepth.Add(ctx, -1)
}

func (m *pipelineMetrics) ObserveEnqueueWait(ctx context.Context, d time.Duration) {
	m.enqueueWait.Record(ctx, d.Seconds())
}

func (m *pipelineMetrics) ObserveDequeueWait(ctx context.Context, d time.Duration) {
	m.dequeueWait.Record(ctx, d.Seconds())
}

func (m *pipelineMetrics) IncItemsCompleted(ctx context.Context, kind domain.Kind) {
	m.itemsCompleted.Add(ctx, 1, kindAttr(kind))
}

// TrackProcessing times f and keeps the in-progress gauge accurate.
func (m *pipelineMetrics) TrackProcessing(ctx context.Context, kind domain.Kind, f func() error) error {
	m.activeProcessing.Add(ctx, 1)
	defer m.activeProcessing.Add(ctx, -1)

	start := time.Now()
	err := f()
	m.processTime.Record(ctx, time.Since(start).Seconds(), kindAttr(kind))
	return err
}

func (m *pipelineMetrics) AddActiveActors(ctx context.Context, role domain.ActorRole, delta int) {
	m.activeActors.Add(ctx, int64(delta), roleAttr(role))
}

func (m *pipelineMetrics) IncActorFailures(ctx context.Context, role domain.ActorRole) {
	m.actorFailures.Add(ctx, 1, roleAttr(role))
}

func (m *pipelineMetrics) ObserveRunDuration(ctx context.Context, d time.Duration) {
	m.runDuration.Record(ctx, d.Seconds())
}
