package pipeline

import (
	"errors"
	"sync"
)

// ErrCounterOverrun is returned when more completions are recorded than the
// run was expected to produce.
var ErrCounterOverrun = errors.New("completion counter overrun")

// CompletionCounter is the run-wide tally of processed items. Every consumer
// shares one counter; the increment and the threshold check happen in a
// single critical section so exactly one caller observes the crossing.
type CompletionCounter struct {
	mu     sync.Mutex
	target int
	count  int
	done   chan struct{}
}

// NewCompletionCounter creates a counter that signals Done once target
// completions have been recorded.
func NewCompletionCounter(target int) (*CompletionCounter, error) {
	if target <= 0 {
		return nil, NewConfigurationError("expected_total", target, "must be greater than zero")
	}
	return &CompletionCounter{target: target, done: make(chan struct{})}, nil
}

// Complete records one finished item and returns the updated count. reached is
// true only for the call that brought the count to the target.
func (c *CompletionCounter) Complete() (count int, reached bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.count >= c.target {
		return c.count, false, ErrCounterOverrun
	}

	c.count++
	if c.count == c.target {
		close(c.done)
		return c.count, true, nil
	}
	return c.count, false, nil
}

// Done is closed when the target has been reached.
func (c *CompletionCounter) Done() <-chan struct{} { return c.done }

// Finished reports whether the target has been reached.
func (c *CompletionCounter) Finished() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Count returns the number of completions recorded so far.
func (c *CompletionCounter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Target returns the expected total.
func (c *CompletionCounter) Target() int { return c.target }
