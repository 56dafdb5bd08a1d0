package pipeline

import (
	"context"
	"time"

	domain "github.com/ahrav/orderflow/internal/domain/pipeline"
)

// Processor does the actual work for a dequeued item. Returning an error
// fails the consumer that called it and aborts the run.
type Processor interface {
	Process(ctx context.Context, item domain.WorkItem) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, item domain.WorkItem) error

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, item domain.WorkItem) error { return f(ctx, item) }

// SimulatedProcessor stands in for real work by waiting out the item's
// processing duration.
type SimulatedProcessor struct{}

// Process blocks for item.Duration() or until ctx is done.
func (SimulatedProcessor) Process(ctx context.Context, item domain.WorkItem) error {
	return sleepCtx(ctx, item.Duration())
}

// sleepCtx pauses for d, returning early with ctx.Err() if ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
