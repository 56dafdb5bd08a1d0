package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ahrav/orderflow/internal/config"
	domain "github.com/ahrav/orderflow/internal/domain/pipeline"
	"github.com/ahrav/orderflow/pkg/common/logger"
	"github.com/ahrav/orderflow/pkg/common/otel"
)

func TestNewCoordinator_ConfigurationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "zero capacity", mutate: func(c *config.Config) { c.Capacity = 0 }},
		{name: "negative producers", mutate: func(c *config.Config) { c.Producers = -2 }},
		{name: "zero consumers", mutate: func(c *config.Config) { c.Consumers = 0 }},
		{name: "zero items per producer", mutate: func(c *config.Config) { c.ItemsPerProducer = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := fastConfig(5, 3, 2, 2)
			tt.mutate(cfg)

			proc := new(mockProcessor)
			c, err := NewCoordinator(cfg, WithProcessor(proc))
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration))
			proc.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
		})
	}

	_, err := NewCoordinator(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = NewCoordinator(fastConfig(1, 1, 1, 1), WithProcessor(nil))
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestCoordinator_Run(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                       string
		capacity, producers, items int
		consumers                  int
	}{
		{name: "three producers two consumers", capacity: 5, producers: 3, items: 2, consumers: 2},
		{name: "single slot", capacity: 1, producers: 1, items: 3, consumers: 1},
		{name: "more consumers than items", capacity: 2, producers: 1, items: 2, consumers: 8},
		{name: "heavy contention", capacity: 3, producers: 6, items: 25, consumers: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			proc := new(recordingProcessor)
			c, err := NewCoordinator(
				fastConfig(tt.capacity, tt.producers, tt.items, tt.consumers),
				WithProcessor(proc),
				WithLogger(logger.Noop()),
				WithSeed(42),
			)
			require.NoError(t, err)

			report, err := runWithin(t, c, context.Background(), 10*time.Second)
			require.NoError(t, err)

			total := tt.producers * tt.items
			assert.NotEqual(t, [16]byte{}, [16]byte(report.RunID))
			assert.Equal(t, total, report.Expected)
			assert.Equal(t, total, report.Produced)
			assert.Equal(t, total, report.Completed)
			assert.Equal(t, 0, report.Queue.Filled)
			assert.Equal(t, tt.capacity, report.Queue.Empty)
			assert.Len(t, report.PerConsumer, tt.consumers)

			sum := 0
			for _, n := range report.PerConsumer {
				sum += n
			}
			assert.Equal(t, total, sum)

			// No loss and no duplication.
			seen := make(map[domain.ItemID]int)
			for _, item := range proc.seen() {
				seen[item.ID()]++
			}
			require.Len(t, seen, total)
			for p := 1; p <= tt.producers; p++ {
				for s := 0; s < tt.items; s++ {
					assert.Equal(t, 1, seen[domain.NewItemID(p, s)])
				}
			}
		})
	}
}

func TestCoordinator_SingleSlotPreservesOrder(t *testing.T) {
	t.Parallel()

	proc := new(recordingProcessor)
	c, err := NewCoordinator(fastConfig(1, 1, 3, 1), WithProcessor(proc))
	require.NoError(t, err)

	report, err := runWithin(t, c, context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Completed)

	items := proc.seen()
	require.Len(t, items, 3)
	for i, item := range items {
		assert.Equal(t, domain.NewItemID(1, i), item.ID())
	}
}

func TestCoordinator_ActorFailureAbortsRun(t *testing.T) {
	t.Parallel()

	boom := errors.New("steam wand broke")
	proc := new(mockProcessor)
	proc.On("Process", mock.Anything, mock.MatchedBy(func(item domain.WorkItem) bool {
		return item.ID() == domain.NewItemID(2, 1)
	})).Return(boom)
	proc.On("Process", mock.Anything, mock.Anything).Return(nil)

	// A single slot keeps the other producers blocked when the failure hits,
	// so the run only terminates if the failure wakes them.
	c, err := NewCoordinator(fastConfig(1, 3, 4, 1), WithProcessor(proc))
	require.NoError(t, err)

	report, err := runWithin(t, c, context.Background(), 5*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrActorFailure)
	assert.ErrorIs(t, err, boom)

	var afe *domain.ActorFailureError
	require.ErrorAs(t, err, &afe)
	assert.Equal(t, domain.ActorRoleConsumer, afe.Role)
	assert.Equal(t, 1, afe.ActorID)
	assert.Less(t, report.Completed, report.Expected)
}

func TestCoordinator_ProcessorPanicBecomesActorFailure(t *testing.T) {
	t.Parallel()

	proc := ProcessorFunc(func(context.Context, domain.WorkItem) error {
		panic("milk everywhere")
	})
	c, err := NewCoordinator(fastConfig(2, 2, 2, 2), WithProcessor(proc))
	require.NoError(t, err)

	_, err = runWithin(t, c, context.Background(), 5*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrActorFailure)
	assert.Contains(t, err.Error(), "milk everywhere")
}

func TestCoordinator_CancellationWakesBlockedActors(t *testing.T) {
	t.Parallel()

	cfg := fastConfig(1, 3, 5, 1)
	cfg.Catalog = []config.KindSpec{{Kind: "pour-over", Duration: time.Hour}}
	c, err := NewCoordinator(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	report, err := runWithin(t, c, ctx, 5*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrActorFailure)
	assert.Equal(t, 0, report.Completed)
}

func TestCoordinator_LongestThinkTimeIsNotAFailure(t *testing.T) {
	t.Parallel()

	cfg := fastConfig(4, 2, 2, 1)
	cfg.MaxThinkTime = time.Duration(math.MaxInt64)
	c, err := NewCoordinator(cfg, WithSeed(9))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	report, err := runWithin(t, c, ctx, 5*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrActorFailure)
	assert.Equal(t, 2, report.Produced)
}

func TestCoordinator_RecordsMetrics(t *testing.T) {
	t.Parallel()

	mp, reader := otel.NewManualMeterProvider("orderflow-test")
	m, err := NewPipelineMetrics(mp)
	require.NoError(t, err)

	c, err := NewCoordinator(fastConfig(5, 3, 2, 2), WithMetrics(m))
	require.NoError(t, err)

	_, err = runWithin(t, c, context.Background(), 5*time.Second)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	assert.Equal(t, int64(6), sumInt64(t, rm, "items_enqueued_total"))
	assert.Equal(t, int64(6), sumInt64(t, rm, "items_dequeued_total"))
	assert.Equal(t, int64(6), sumInt64(t, rm, "items_completed_total"))
	assert.Equal(t, int64(0), sumInt64(t, rm, "queue_depth"))
	assert.Equal(t, int64(0), sumInt64(t, rm, "active_actors"))
	assert.Equal(t, int64(0), sumInt64(t, rm, "items_in_progress"))
}

func sumInt64(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	require.FailNow(t, "metric not found", name)
	return 0
}
