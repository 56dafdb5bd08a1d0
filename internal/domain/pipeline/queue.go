package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// QueueStats is a consistent snapshot of a BoundedQueue's slot accounting.
// Filled + Empty always equals Capacity.
type QueueStats struct {
	Capacity int
	Filled   int
	Empty    int
}

// BoundedQueue is a fixed-capacity FIFO ring of slots shared by producers and
// consumers.
//
// Two counting semaphores gate access: empty holds one permit per free slot
// and filled holds one permit per occupied slot. A caller first waits on the
// relevant semaphore and only then takes mu to touch the ring, so no lock is
// ever held while blocked on capacity or availability. Semaphore waiters are
// served in arrival order.
type BoundedQueue[T any] struct {
	capacity int

	empty  *semaphore.Weighted
	filled *semaphore.Weighted

	mu    sync.Mutex
	slots []T
	in    int // next slot to write
	out   int // next slot to read
	count int
}

// NewBoundedQueue creates a queue with room for capacity items. A capacity
// below one could never hold an item and is rejected.
func NewBoundedQueue[T any](capacity int) (*BoundedQueue[T], error) {
	if capacity <= 0 {
		return nil, NewConfigurationError("capacity", capacity, "must be greater than zero")
	}

	c := int64(capacity)
	filled := semaphore.NewWeighted(c)
	// Start with every "filled" permit taken; they are handed back one at a
	// time as items land in the ring.
	if !filled.TryAcquire(c) {
		panic("pipeline: fresh semaphore refused its own capacity")
	}

	return &BoundedQueue[T]{
		capacity: capacity,
		empty:    semaphore.NewWeighted(c),
		filled:   filled,
		slots:    make([]T, capacity),
	}, nil
}

// Enqueue blocks until a slot is free, then appends item at the write cursor.
// The only error is ctx.Err() when ctx ends while waiting; in that case the
// queue is left untouched.
func (q *BoundedQueue[T]) Enqueue(ctx context.Context, item T) error {
	if err := q.empty.Acquire(ctx, 1); err != nil {
		return err
	}
	q.put(item)
	q.filled.Release(1)
	return nil
}

// TryEnqueue appends item only if a slot is free right now.
func (q *BoundedQueue[T]) TryEnqueue(item T) bool {
	if !q.empty.TryAcquire(1) {
		return false
	}
	q.put(item)
	q.filled.Release(1)
	return true
}

// Dequeue blocks until an item is available, then removes and returns the
// item at the read cursor. The only error is ctx.Err() when ctx ends while
// waiting.
func (q *BoundedQueue[T]) Dequeue(ctx context.Context) (T, error) {
	if err := q.filled.Acquire(ctx, 1); err != nil {
		var zero T
		return zero, err
	}
	item := q.take()
	q.empty.Release(1)
	return item, nil
}

// TryDequeue removes the oldest item only if one is available right now.
func (q *BoundedQueue[T]) TryDequeue() (T, bool) {
	if !q.filled.TryAcquire(1) {
		var zero T
		return zero, false
	}
	item := q.take()
	q.empty.Release(1)
	return item, true
}

func (q *BoundedQueue[T]) put(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.slots[q.in] = item
	q.in = (q.in + 1) % q.capacity
	q.count++
}

func (q *BoundedQueue[T]) take() T {
	q.mu.Lock()
	defer q.mu.Unlock()

	item := q.slots[q.out]
	var zero T
	q.slots[q.out] = zero // drop the queue's reference; the caller owns it now
	q.out = (q.out + 1) % q.capacity
	q.count--
	return item
}

// Cap returns the fixed capacity.
func (q *BoundedQueue[T]) Cap() int { return q.capacity }

// Len returns the number of items currently in the ring.
func (q *BoundedQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Stats returns a snapshot of slot usage.
func (q *BoundedQueue[T]) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Capacity: q.capacity,
		Filled:   q.count,
		Empty:    q.capacity - q.count,
	}
}
