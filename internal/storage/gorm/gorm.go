// Package gormstorage implements the storage.Backend interface on any GORM
// dialect, with internal queues drained by a background writer goroutine.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/driftcars/autopilot/internal/database"
	"github.com/driftcars/autopilot/internal/model"
	"github.com/driftcars/autopilot/internal/model/convert"
	"github.com/driftcars/autopilot/internal/queue"
	"github.com/driftcars/autopilot/pkg/core"
)

// ErrNoRun is returned when records arrive before StartRun.
var ErrNoRun = errors.New("no run started")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger *slog.Logger
	// FlushInterval is how often the writer drains the queues. Zero
	// disables the writer; Flush must then be called explicitly.
	FlushInterval time.Duration
	// BatchSize caps the rows per insert transaction.
	BatchSize int
	// QueueLimit caps each queue; older rows are dropped beyond it.
	QueueLimit int
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Ticks    *queue.Queue[model.TickRecord]
	Commands *queue.Queue[model.CommandRecord]
}

func newQueues(limit int) *queues {
	return &queues{
		Ticks:    queue.NewLimited[model.TickRecord](limit),
		Commands: queue.NewLimited[model.CommandRecord](limit),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps   Dependencies
	queues *queues

	mu    sync.RWMutex
	runID string

	// flushMu serializes writers so rows keep their order.
	flushMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = 500
	}
	return &Backend{
		deps:   deps,
		queues: newQueues(deps.QueueLimit),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm backend requires a database")
	}
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	if b.deps.FlushInterval > 0 {
		b.stopChan = make(chan struct{})
		b.done = make(chan struct{})
		go b.writeLoop()
	}
	return nil
}

// Close stops the writer and flushes whatever is still queued.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
		<-b.done
		b.stopChan = nil
	}
	if b.deps.DB == nil {
		return nil
	}
	return b.Flush()
}

// StartRun inserts the run row. Records queued afterwards belong to it.
func (b *Backend) StartRun(run *core.Run) error {
	row := convert.CoreToRun(*run)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	b.mu.Lock()
	b.runID = run.ID
	b.mu.Unlock()
	return nil
}

// EndRun flushes the queues and stamps the run's end time.
func (b *Backend) EndRun(run *core.Run) error {
	if err := b.Flush(); err != nil {
		return err
	}
	row := convert.CoreToRun(*run)
	err := b.deps.DB.Model(&model.Run{}).Where("id = ?", run.ID).Update("end_time", row.EndTime).Error
	if err != nil {
		return fmt.Errorf("failed to close run: %w", err)
	}
	return nil
}

func (b *Backend) currentRun() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.runID == "" {
		return "", ErrNoRun
	}
	return b.runID, nil
}

// RecordTicks converts tick records and queues them.
func (b *Backend) RecordTicks(ticks []core.TickRecord) error {
	runID, err := b.currentRun()
	if err != nil {
		return err
	}
	rows := make([]model.TickRecord, len(ticks))
	for i, t := range ticks {
		rows[i] = convert.CoreToTickRecord(runID, t)
	}
	b.queues.Ticks.Push(rows...)
	return nil
}

// RecordCommands converts command records and queues them.
func (b *Backend) RecordCommands(cmds []core.CommandRecord) error {
	runID, err := b.currentRun()
	if err != nil {
		return err
	}
	rows := make([]model.CommandRecord, len(cmds))
	for i, c := range cmds {
		rows[i] = convert.CoreToCommandRecord(runID, c)
	}
	b.queues.Commands.Push(rows...)
	return nil
}

// Pending returns the number of queued tick and command rows.
func (b *Backend) Pending() (ticks, commands int) {
	return b.queues.Ticks.Len(), b.queues.Commands.Len()
}

// Flush drains both queues into the database.
func (b *Backend) Flush() error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	return errors.Join(
		writeQueue(b.deps.DB, b.queues.Ticks, b.deps.BatchSize),
		writeQueue(b.deps.DB, b.queues.Commands, b.deps.BatchSize),
	)
}

// writeQueue writes all items from a queue to the database, one transaction
// per batch. A failed batch is requeued at the front and the error returned.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], batchSize int) error {
	for !q.Empty() {
		items := q.PopBatch(batchSize)
		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Omit(clause.Associations).Create(&items).Error
		})
		if err != nil {
			q.Requeue(items...)
			return fmt.Errorf("error creating %T rows: %w", items, err)
		}
	}
	return nil
}

// writeLoop periodically drains queues into the DB.
func (b *Backend) writeLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.deps.Logger.Error("DB writer flush failed", "error", err)
			}
		}
	}
}
