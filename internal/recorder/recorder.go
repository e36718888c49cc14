// Package recorder moves tick and command records from the pipeline into a
// storage backend in batches.
package recorder

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/driftcars/autopilot/internal/channel"
	"github.com/driftcars/autopilot/internal/queue"
	"github.com/driftcars/autopilot/internal/storage"
	"github.com/driftcars/autopilot/pkg/core"
)

const (
	DefaultFlushInterval = time.Second
	DefaultBatchSize     = 500

	// pending records kept while the backend is failing
	queueLimit = 100_000
)

// Dependencies holds all dependencies for the recorder
type Dependencies struct {
	Backend  storage.Backend
	Ticks    channel.Receiver[core.TickRecord]
	Commands channel.Receiver[core.CommandRecord]
	Logger   *slog.Logger

	FlushInterval time.Duration
	BatchSize     int
}

// Stats counts what the recorder has written.
type Stats struct {
	Ticks    uint64 `json:"ticks"`
	Commands uint64 `json:"commands"`
	Failures uint64 `json:"failures"`
	Pending  int    `json:"pending"`
	Dropped  uint64 `json:"dropped"`
}

// Recorder drains record channels on a fixed interval.
type Recorder struct {
	deps     Dependencies
	ticks    *queue.Queue[core.TickRecord]
	commands *queue.Queue[core.CommandRecord]

	written  atomic.Uint64
	sent     atomic.Uint64
	failures atomic.Uint64
}

// New creates a recorder. A nil Ticks or Commands receiver is skipped.
func New(deps Dependencies) *Recorder {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = DefaultBatchSize
	}
	return &Recorder{
		deps:     deps,
		ticks:    queue.NewLimited[core.TickRecord](queueLimit),
		commands: queue.NewLimited[core.CommandRecord](queueLimit),
	}
}

// Run flushes every interval until ctx is done, then flushes what is left.
// Backend failures are logged and retried on the next interval.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := r.Flush(); err != nil {
				r.deps.Logger.Error("final record flush failed", "error", err)
			}
			return nil
		case <-ticker.C:
			if err := r.Flush(); err != nil {
				r.deps.Logger.Warn("record flush failed, will retry", "error", err)
			}
		}
	}
}

func (r *Recorder) collect() {
	if r.deps.Ticks != nil {
		r.ticks.Push(r.deps.Ticks.Drain()...)
	}
	if r.deps.Commands != nil {
		r.commands.Push(r.deps.Commands.Drain()...)
	}
}

// Flush drains the channels and writes everything pending. A failed batch
// stays queued for the next call.
func (r *Recorder) Flush() error {
	r.collect()

	if err := writeAll(r.ticks, r.deps.BatchSize, r.deps.Backend.RecordTicks, &r.written); err != nil {
		r.failures.Add(1)
		return err
	}
	if err := writeAll(r.commands, r.deps.BatchSize, r.deps.Backend.RecordCommands, &r.sent); err != nil {
		r.failures.Add(1)
		return err
	}
	return nil
}

func writeAll[T any](q *queue.Queue[T], size int, write func([]T) error, count *atomic.Uint64) error {
	for !q.Empty() {
		batch := q.PopBatch(size)
		if err := write(batch); err != nil {
			q.Requeue(batch...)
			return err
		}
		count.Add(uint64(len(batch)))
	}
	return nil
}

// Stats returns the recorder counters.
func (r *Recorder) Stats() Stats {
	return Stats{
		Ticks:    r.written.Load(),
		Commands: r.sent.Load(),
		Failures: r.failures.Load(),
		Pending:  r.ticks.Len() + r.commands.Len(),
		Dropped:  r.ticks.Dropped() + r.commands.Dropped(),
	}
}
