package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/ahrav/orderflow/internal/domain/pipeline"
	"github.com/ahrav/orderflow/pkg/common/logger"
	"github.com/ahrav/orderflow/pkg/common/otel"
)

// consumer takes items off the queue, processes them and records each
// completion on the shared counter. Consumers stop together: the context
// they run under is cancelled by the coordinator once the counter reaches
// the expected total.
type consumer struct {
	id int

	queue     *domain.BoundedQueue[domain.WorkItem]
	counter   *domain.CompletionCounter
	processor Processor

	logger  *logger.Logger
	metrics PipelineMetrics
	tracer  trace.Tracer
}

func newConsumer(
	id int,
	queue *domain.BoundedQueue[domain.WorkItem],
	counter *domain.CompletionCounter,
	processor Processor,
	logger *logger.Logger,
	metrics PipelineMetrics,
	tracer trace.Tracer,
) *consumer {
	return &consumer{
		id:        id,
		queue:     queue,
		counter:   counter,
		processor: processor,
		logger:    logger.With("consumer_id", id),
		metrics:   metrics,
		tracer:    tracer,
	}
}

// run loops until the shared counter is finished and returns how many items
// this consumer completed.
func (c *consumer) run(ctx context.Context) (int, error) {
	ctx, span := otel.AddSpan(ctx, c.tracer, "consumer.run", attribute.Int("consumer_id", c.id))
	defer span.End()

	c.metrics.AddActiveActors(ctx, domain.ActorRoleConsumer, 1)
	defer c.metrics.AddActiveActors(ctx, domain.ActorRoleConsumer, -1)

	processed := 0
	for {
		start := time.Now()
		item, err := c.queue.Dequeue(ctx)
		if err != nil {
			if c.counter.Finished() {
				span.SetAttributes(attribute.Int("processed", processed))
				span.SetStatus(codes.Ok, "expected total reached")
				c.logger.Debug(ctx, "consumer finished", "processed", processed)
				return processed, nil
			}
			span.SetStatus(codes.Error, "dequeue interrupted")
			return processed, fmt.Errorf("consumer %d: dequeue: %w", c.id, err)
		}
		c.metrics.ObserveDequeueWait(ctx, time.Since(start))
		c.metrics.IncItemsDequeued(ctx, item.Kind())

		if err := c.handle(ctx, item); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "item processing failed")
			return processed, err
		}
		processed++
	}
}

// handle processes one item and records its completion.
func (c *consumer) handle(ctx context.Context, item domain.WorkItem) error {
	ctx, span := otel.AddSpan(ctx, c.tracer, "consumer.process_item",
		attribute.Int("consumer_id", c.id),
		attribute.String("item_id", item.ID().String()),
		attribute.String("kind", item.Kind().String()),
		attribute.Int64("duration_ms", item.Duration().Milliseconds()),
	)
	defer span.End()

	c.logger.Info(ctx, "preparing order",
		"item_id", item.ID().String(),
		"order_number", item.ID().OrderNumber(),
		"kind", item.Kind().String(),
	)

	err := c.metrics.TrackProcessing(ctx, item.Kind(), func() error {
		return c.processor.Process(ctx, item)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "processor failed")
		// A run that is already shutting down is not this actor's fault.
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return fmt.Errorf("consumer %d: processing %s: %w", c.id, item.ID(), err)
		}
		return domain.NewActorFailureError(domain.ActorRoleConsumer, c.id,
			fmt.Errorf("processing %s: %w", item.ID(), err))
	}

	count, reached, err := c.counter.Complete()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion counter rejected item")
		return domain.NewActorFailureError(domain.ActorRoleConsumer, c.id,
			fmt.Errorf("completing %s: %w", item.ID(), err))
	}
	c.metrics.IncItemsCompleted(ctx, item.Kind())

	span.SetAttributes(attribute.Int("completed_total", count))
	span.SetStatus(codes.Ok, "item completed")
	c.logger.Info(ctx, "order completed",
		"item_id", item.ID().String(),
		"order_number", item.ID().OrderNumber(),
		"kind", item.Kind().String(),
		"completed_total", count,
	)
	if reached {
		c.logger.Info(ctx, "expected total reached", "completed_total", count)
	}
	return nil
}
