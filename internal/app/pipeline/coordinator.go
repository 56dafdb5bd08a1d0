// Package pipeline runs the producer/consumer workflow: it wires producers and
// consumers to one bounded queue and supervises them until the expected
// number of items has been processed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/orderflow/internal/config"
	domain "github.com/ahrav/orderflow/internal/domain/pipeline"
	"github.com/ahrav/orderflow/pkg/common/logger"
	"github.com/ahrav/orderflow/pkg/common/otel"
)

// Report summarises a finished run.
type Report struct {
	RunID       uuid.UUID
	Expected    int
	Produced    int
	Completed   int
	PerConsumer map[int]int
	Queue       domain.QueueStats
	Elapsed     time.Duration
}

// Coordinator owns one pipeline configuration and launches runs of it.
type Coordinator struct {
	capacity         int
	producers        int
	consumers        int
	itemsPerProducer int
	maxThinkTime     time.Duration
	producerRate     float64
	catalog          domain.Catalog

	processor Processor
	seed      uint64

	logger  *logger.Logger
	metrics PipelineMetrics
	tracer  trace.Tracer
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option { return func(c *Coordinator) { c.logger = l } }

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option { return func(c *Coordinator) { c.tracer = t } }

// WithMetrics sets the metrics recorder.
func WithMetrics(m PipelineMetrics) Option { return func(c *Coordinator) { c.metrics = m } }

// WithProcessor replaces the simulated processor used by consumers.
func WithProcessor(p Processor) Option { return func(c *Coordinator) { c.processor = p } }

// WithSeed makes kind selection and think times reproducible.
func WithSeed(seed uint64) Option { return func(c *Coordinator) { c.seed = seed } }

// NewCoordinator validates cfg and returns a Coordinator ready to Run. Any
// configuration problem is reported here, before an actor exists.
func NewCoordinator(cfg *config.Config, opts ...Option) (*Coordinator, error) {
	if cfg == nil {
		return nil, domain.NewConfigurationError("config", nil, "must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	catalog, err := cfg.BuildCatalog()
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		capacity:         cfg.Capacity,
		producers:        cfg.Producers,
		consumers:        cfg.Consumers,
		itemsPerProducer: cfg.ItemsPerProducer,
		maxThinkTime:     cfg.MaxThinkTime,
		producerRate:     cfg.ProducerRate,
		catalog:          catalog,
		processor:        SimulatedProcessor{},
		seed:             rand.Uint64(),
		logger:           logger.Noop(),
		metrics:          noopMetrics{},
		tracer:           noop.NewTracerProvider().Tracer("orderflow"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.processor == nil {
		return nil, domain.NewConfigurationError("processor", nil, "must not be nil")
	}
	c.logger = c.logger.With("component", "coordinator")

	return c, nil
}

// ExpectedTotal is the number of items a run processes before it ends.
func (c *Coordinator) ExpectedTotal() int { return c.producers * c.itemsPerProducer }

// Run executes one complete pipeline: it creates the queue and the completion
// counter, starts every producer and consumer, waits for the producers and
// then for the consumers, and reports what happened.
//
// If any actor fails, the remaining actors are woken through the shared
// context and Run returns the failure instead of waiting on the dead actor.
func (c *Coordinator) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	runID := uuid.New()
	expected := c.ExpectedTotal()

	logger := logger.NewLoggerContext(c.logger.With("run_id", runID.String()))
	ctx, span := otel.AddSpan(ctx, c.tracer, "coordinator.run",
		attribute.String("run_id", runID.String()),
		attribute.Int("capacity", c.capacity),
		attribute.Int("producers", c.producers),
		attribute.Int("consumers", c.consumers),
		attribute.Int("expected_total", expected),
	)
	defer span.End()

	report := Report{RunID: runID, Expected: expected, PerConsumer: make(map[int]int, c.consumers)}

	queue, err := domain.NewBoundedQueue[domain.WorkItem](c.capacity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid capacity")
		return report, err
	}
	counter, err := domain.NewCompletionCounter(expected)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid expected total")
		return report, err
	}

	menu := make([]string, 0, c.catalog.Len())
	for _, e := range c.catalog.Entries() {
		menu = append(menu, fmt.Sprintf("%s (%s)", e.Kind, e.Duration))
	}
	logger.Info(ctx, "pipeline open",
		"capacity", c.capacity,
		"producers", c.producers,
		"consumers", c.consumers,
		"expected_total", expected,
		"catalog", menu,
	)

	g, gctx := errgroup.WithContext(ctx)

	// Consumers share one context that ends either with the group or when the
	// counter reaches the expected total, whichever happens first.
	consumerCtx, stopConsumers := context.WithCancel(gctx)
	defer stopConsumers()
	go func() {
		select {
		case <-counter.Done():
			stopConsumers()
		case <-consumerCtx.Done():
		}
	}()

	var (
		produced    atomic.Int64
		producersWg sync.WaitGroup
		perConsumer = make([]int, c.consumers)
	)

	pcfg := producerConfig{
		quota:        c.itemsPerProducer,
		catalog:      c.catalog,
		maxThinkTime: c.maxThinkTime,
		ratePerSec:   c.producerRate,
		seed:         c.seed,
	}
	for id := 1; id <= c.producers; id++ {
		p := newProducer(id, pcfg, queue, c.logger, c.metrics, c.tracer)
		producersWg.Add(1)
		g.Go(func() error {
			defer producersWg.Done()
			return c.supervise(gctx, domain.ActorRoleProducer, id, func() error {
				n, err := p.run(gctx)
				produced.Add(int64(n))
				return err
			})
		})
	}

	for id := 1; id <= c.consumers; id++ {
		cons := newConsumer(id, queue, counter, c.processor, c.logger, c.metrics, c.tracer)
		g.Go(func() error {
			return c.supervise(gctx, domain.ActorRoleConsumer, id, func() error {
				n, err := cons.run(consumerCtx)
				perConsumer[id-1] = n
				return err
			})
		})
	}
	span.AddEvent("actors_started")

	producersDone := make(chan struct{})
	go func() {
		producersWg.Wait()
		close(producersDone)
	}()
	select {
	case <-producersDone:
		span.AddEvent("producers_finished")
		logger.Info(ctx, "all producers finished", "produced", produced.Load())
	case <-gctx.Done():
	}

	err = g.Wait()

	report.Produced = int(produced.Load())
	report.Completed = counter.Count()
	report.Queue = queue.Stats()
	report.Elapsed = time.Since(start)
	for i, n := range perConsumer {
		report.PerConsumer[i+1] = n
	}
	logger.Add(
		"produced", report.Produced,
		"completed", report.Completed,
		"elapsed", report.Elapsed.String(),
	)
	c.metrics.ObserveRunDuration(ctx, report.Elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run aborted")
		if errors.Is(err, domain.ErrActorFailure) {
			logger.Error(ctx, "pipeline aborted by actor failure", "error", err)
			return report, err
		}
		logger.Warn(ctx, "pipeline interrupted", "error", err)
		return report, fmt.Errorf("run %s interrupted: %w", runID, err)
	}

	span.SetAttributes(attribute.Int("completed", report.Completed))
	span.SetStatus(codes.Ok, "run complete")
	logger.Info(ctx, "pipeline closed", "per_consumer", report.PerConsumer)
	return report, nil
}

// supervise runs one actor body, turning a panic into an ActorFailureError so
// the group unwinds instead of the process crashing.
func (c *Coordinator) supervise(ctx context.Context, role domain.ActorRole, id int, body func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.NewActorFailureError(role, id, fmt.Errorf("panic: %v", r))
		}
		if errors.Is(err, domain.ErrActorFailure) {
			c.metrics.IncActorFailures(ctx, role)
			c.logger.Error(ctx, "actor failed", "role", role.String(), "actor_id", id, "error", err)
		}
	}()
	return body()
}
