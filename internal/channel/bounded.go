package channel

import (
	"context"
	"sync"
	"time"
)

// Bounded is a fixed-capacity FIFO that evicts the oldest item instead of
// blocking the producer when full.
type Bounded[T any] struct {
	mu      sync.Mutex
	items   []T
	head    int
	size    int
	dropped uint64
	closed  bool

	// notify holds at most one pending wake-up for waiting consumers.
	notify chan struct{}
}

// NewBounded creates a bounded channel holding at most capacity items.
// A capacity below 1 is raised to 1.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Bounded[T]{
		items:  make([]T, capacity),
		notify: make(chan struct{}, 1),
	}
}

// TryPush inserts v, evicting the oldest item if the channel is full.
// Pushing to a closed channel is a no-op.
func (b *Bounded[T]) TryPush(v T) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}

	evicted := false
	if b.size == len(b.items) {
		var zero T
		b.items[b.head] = zero
		b.head = (b.head + 1) % len(b.items)
		b.size--
		b.dropped++
		evicted = true
	}
	b.items[(b.head+b.size)%len(b.items)] = v
	b.size++

	select {
	case b.notify <- struct{}{}:
	default:
	}
	b.mu.Unlock()
	return evicted
}

// pop removes the oldest item. The caller must hold b.mu.
func (b *Bounded[T]) pop() (T, bool) {
	var zero T
	if b.size == 0 {
		return zero, false
	}
	item := b.items[b.head]
	b.items[b.head] = zero
	b.head = (b.head + 1) % len(b.items)
	b.size--
	return item, true
}

// PopWithTimeout returns the oldest item, waiting up to d for one.
func (b *Bounded[T]) PopWithTimeout(ctx context.Context, d time.Duration) (T, bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		b.mu.Lock()
		item, ok := b.pop()
		closed := b.closed
		b.mu.Unlock()
		if ok {
			return item, true
		}
		if closed {
			return item, false
		}

		select {
		case <-b.notify:
		case <-timer.C:
			return item, false
		case <-ctx.Done():
			return item, false
		}
	}
}

// Drain removes and returns all queued items, oldest first.
func (b *Bounded[T]) Drain() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]T, 0, b.size)
	for {
		item, ok := b.pop()
		if !ok {
			return out
		}
		out = append(out, item)
	}
}

// Len returns the number of queued items.
func (b *Bounded[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Cap returns the fixed capacity.
func (b *Bounded[T]) Cap() int {
	return len(b.items)
}

// Dropped returns how many items were evicted since construction.
func (b *Bounded[T]) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close discards queued items and wakes any waiting consumer. Further pushes
// are ignored.
func (b *Bounded[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	var zero T
	for i := range b.items {
		b.items[i] = zero
	}
	b.head, b.size = 0, 0
	close(b.notify)
	b.mu.Unlock()
}
