package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/orderflow/internal/config"
	domain "github.com/ahrav/orderflow/internal/domain/pipeline"
)

// fastConfig returns a valid configuration whose items take a millisecond to
// process and whose producers never pause.
func fastConfig(capacity, producers, itemsPerProducer, consumers int) *config.Config {
	cfg := config.Default()
	cfg.Capacity = capacity
	cfg.Producers = producers
	cfg.ItemsPerProducer = itemsPerProducer
	cfg.Consumers = consumers
	cfg.MaxThinkTime = 0
	cfg.Catalog = []config.KindSpec{
		{Kind: "espresso", Duration: time.Millisecond},
		{Kind: "latte", Duration: 2 * time.Millisecond},
	}
	return cfg
}

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) Process(ctx context.Context, item domain.WorkItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// recordingProcessor remembers every item it was handed, in call order.
type recordingProcessor struct {
	mu    sync.Mutex
	items []domain.WorkItem
}

func (r *recordingProcessor) Process(_ context.Context, item domain.WorkItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
	return nil
}

func (r *recordingProcessor) seen() []domain.WorkItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.WorkItem, len(r.items))
	copy(out, r.items)
	return out
}

// runWithin runs c and fails the test if it does not return within d.
func runWithin(t *testing.T, c *Coordinator, ctx context.Context, d time.Duration) (Report, error) {
	t.Helper()

	type result struct {
		report Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		r, err := c.Run(ctx)
		done <- result{r, err}
	}()

	select {
	case res := <-done:
		return res.report, res.err
	case <-time.After(d):
		require.FailNow(t, "run did not terminate", "waited %s", d)
		return Report{}, nil
	}
}
