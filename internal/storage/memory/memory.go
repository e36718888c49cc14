// Package memory keeps a run in memory and exports it to a JSON file when the
// run ends.
package memory

import (
	"errors"
	"sync"

	"github.com/driftcars/autopilot/internal/config"
	"github.com/driftcars/autopilot/pkg/core"
)

// ErrNoRun is returned when records arrive before StartRun.
var ErrNoRun = errors.New("no run started")

// Backend stores run data in memory and exports to JSON
type Backend struct {
	cfg config.MemoryConfig
	run *core.Run

	ticks    []core.TickRecord
	commands []core.CommandRecord

	lastExportPath string
	lastExportMeta core.UploadMetadata

	mu sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartRun begins recording a new run
func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := *run
	b.run = &r
	b.ticks = nil
	b.commands = nil
	return nil
}

// EndRun finalizes and exports the run data
func (b *Backend) EndRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoRun
	}
	b.run.EndTime = run.EndTime
	return b.exportJSON()
}

// RecordTicks appends tick records to the current run
func (b *Backend) RecordTicks(ticks []core.TickRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoRun
	}
	b.ticks = append(b.ticks, ticks...)
	return nil
}

// RecordCommands appends command records to the current run
func (b *Backend) RecordCommands(cmds []core.CommandRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoRun
	}
	b.commands = append(b.commands, cmds...)
	return nil
}

// Counts returns how many tick and command records are held.
func (b *Backend) Counts() (ticks, commands int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ticks), len(b.commands)
}

// GetExportedFilePath returns the path of the last export, or "" if none.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the last export for upload.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportMeta
}
