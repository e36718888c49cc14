// Package channel provides the bounded exchange channels that connect the
// pipeline stages.
package channel

import (
	"context"
	"time"
)

// Receiver provides read access to a channel.
type Receiver[T any] interface {
	// PopWithTimeout returns the oldest item, waiting at most d for one to
	// arrive. ok is false on timeout, cancellation or a closed empty channel.
	PopWithTimeout(ctx context.Context, d time.Duration) (item T, ok bool)
	// Drain returns every queued item in FIFO order without blocking.
	Drain() []T
	Len() int
}

// Sender provides write access to a channel.
type Sender[T any] interface {
	// TryPush never blocks. It reports whether an older item was evicted to
	// make room.
	TryPush(T) bool
}

// Channel combines read and write access.
type Channel[T any] interface {
	Receiver[T]
	Sender[T]
	Cap() int
	Dropped() uint64
	Close()
}
