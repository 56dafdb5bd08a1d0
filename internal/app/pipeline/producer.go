package pipeline

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/ahrav/orderflow/internal/domain/pipeline"
	"github.com/ahrav/orderflow/pkg/common"
	"github.com/ahrav/orderflow/pkg/common/logger"
	"github.com/ahrav/orderflow/pkg/common/otel"
)

// producer places a fixed quota of items on the queue, picking each item's
// kind from the catalog.
type producer struct {
	id    int
	quota int

	queue   *domain.BoundedQueue[domain.WorkItem]
	catalog domain.Catalog
	rng     *rand.Rand

	maxThinkTime time.Duration
	ratePerSec   float64
	pacer        *common.RateLimiter

	logger  *logger.Logger
	metrics PipelineMetrics
	tracer  trace.Tracer
}

type producerConfig struct {
	quota        int
	catalog      domain.Catalog
	maxThinkTime time.Duration
	ratePerSec   float64
	seed         uint64
}

func newProducer(
	id int,
	cfg producerConfig,
	queue *domain.BoundedQueue[domain.WorkItem],
	logger *logger.Logger,
	metrics PipelineMetrics,
	tracer trace.Tracer,
) *producer {
	return &producer{
		id:           id,
		quota:        cfg.quota,
		queue:        queue,
		catalog:      cfg.catalog,
		rng:          rand.New(rand.NewPCG(cfg.seed, uint64(id))),
		maxThinkTime: cfg.maxThinkTime,
		ratePerSec:   cfg.ratePerSec,
		pacer:        common.NewRateLimiter(cfg.ratePerSec, 1),
		logger:       logger.With("producer_id", id),
		metrics:      metrics,
		tracer:       tracer,
	}
}

// run produces the full quota and returns how many items were enqueued. The
// only error is the context's, when the run is cancelled while the producer
// is blocked or pausing.
func (p *producer) run(ctx context.Context) (int, error) {
	ctx, span := otel.AddSpan(ctx, p.tracer, "producer.run",
		attribute.Int("producer_id", p.id),
		attribute.Int("quota", p.quota),
	)
	defer span.End()

	if p.pacer.Limited() {
		p.logger.Debug(ctx, "producer paced", "rate_per_sec", p.ratePerSec)
	}

	p.metrics.AddActiveActors(ctx, domain.ActorRoleProducer, 1)
	defer p.metrics.AddActiveActors(ctx, domain.ActorRoleProducer, -1)

	produced := 0
	for seq := range p.quota {
		if err := p.pacer.Wait(ctx); err != nil {
			span.SetStatus(codes.Error, "pacing interrupted")
			return produced, fmt.Errorf("producer %d: waiting for pace: %w", p.id, err)
		}

		item := domain.NewWorkItem(domain.NewItemID(p.id, seq), p.catalog.Pick(p.rng))

		start := time.Now()
		if err := p.queue.Enqueue(ctx, item); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "enqueue interrupted")
			return produced, fmt.Errorf("producer %d: enqueue %s: %w", p.id, item.ID(), err)
		}
		p.metrics.ObserveEnqueueWait(ctx, time.Since(start))
		p.metrics.IncItemsEnqueued(ctx, item.Kind())
		produced++

		span.AddEvent("item_enqueued", trace.WithAttributes(
			attribute.String("item_id", item.ID().String()),
			attribute.String("kind", item.Kind().String()),
		))
		p.logger.Info(ctx, "order placed",
			"item_id", item.ID().String(),
			"order_number", item.ID().OrderNumber(),
			"kind", item.Kind().String(),
		)

		if seq == p.quota-1 {
			break
		}
		if err := sleepCtx(ctx, p.thinkTime()); err != nil {
			span.SetStatus(codes.Error, "think time interrupted")
			return produced, fmt.Errorf("producer %d: pausing: %w", p.id, err)
		}
	}

	span.SetStatus(codes.Ok, "quota produced")
	p.logger.Debug(ctx, "producer finished", "produced", produced)
	return produced, nil
}

// thinkTime returns a uniform pause in [0, maxThinkTime]. The upper bound is
// exclusive only at math.MaxInt64, where it cannot be widened.
func (p *producer) thinkTime() time.Duration {
	if p.maxThinkTime <= 0 {
		return 0
	}
	n := int64(p.maxThinkTime)
	if n < math.MaxInt64 {
		n++
	}
	return time.Duration(p.rng.Int64N(n))
}
