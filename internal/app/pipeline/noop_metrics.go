package pipeline

import (
	"context"
	"time"

	domain "github.com/ahrav/orderflow/internal/domain/pipeline"
)

// noopMetrics discards every measurement.
type noopMetrics struct{}

func (noopMetrics) IncItemsEnqueued(context.Context, domain.Kind)          {}
func (noopMetrics) IncItemsDequeued(context.Context, domain.Kind)          {}
func (noopMetrics) ObserveEnqueueWait(context.Context, time.Duration)      {}
func (noopMetrics) ObserveDequeueWait(context.Context, time.Duration)      {}
func (noopMetrics) IncItemsCompleted(context.Context, domain.Kind)         {}
func (noopMetrics) AddActiveActors(context.Context, domain.ActorRole, int) {}
func (noopMetrics) IncActorFailures(context.Context, domain.ActorRole)     {}
func (noopMetrics) ObserveRunDuration(context.Context, time.Duration)      {}

func (noopMetrics) TrackProcessing(_ context.Context, _ domain.Kind, f func() error) error {
	return f()
}
