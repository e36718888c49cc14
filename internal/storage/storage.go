// Package storage defines the run recorder backends.
package storage

import "github.com/driftcars/autopilot/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Run management
	StartRun(run *core.Run) error
	EndRun(run *core.Run) error

	// Record batches, oldest first
	RecordTicks(ticks []core.TickRecord) error
	RecordCommands(cmds []core.CommandRecord) error
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to the run viewer.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}

// Nop discards everything. It backs storage type "none".
type Nop struct{}

func (Nop) Init() error                               { return nil }
func (Nop) Close() error                              { return nil }
func (Nop) StartRun(*core.Run) error                  { return nil }
func (Nop) EndRun(*core.Run) error                    { return nil }
func (Nop) RecordTicks([]core.TickRecord) error       { return nil }
func (Nop) RecordCommands([]core.CommandRecord) error { return nil }
