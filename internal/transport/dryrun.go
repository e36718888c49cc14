package transport

import (
	"context"
	"encoding/hex"
	"log/slog"
	"sync"
)

// DryRun logs every write instead of sending it. It is always connected.
type DryRun struct {
	logger *slog.Logger

	mu     sync.Mutex
	writes int
	last   string
}

// NewDryRun creates a dry-run transport. A nil logger selects slog.Default.
func NewDryRun(logger *slog.Logger) *DryRun {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRun{logger: logger}
}

func (d *DryRun) write(mode string, data []byte) {
	wire := hex.EncodeToString(data)
	d.mu.Lock()
	d.writes++
	d.last = wire
	n := d.writes
	d.mu.Unlock()
	d.logger.Debug("Dry-run write", "mode", mode, "seq", n, "wire", wire)
}

func (d *DryRun) WriteRequest(_ context.Context, data []byte) error {
	d.write("request", data)
	return nil
}

func (d *DryRun) WriteCommand(_ context.Context, data []byte) error {
	d.write("command", data)
	return nil
}

func (d *DryRun) Connected() bool { return true }

func (d *DryRun) Close() error { return nil }

// Writes returns the number of writes seen so far.
func (d *DryRun) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

// LastWire returns the hex of the most recent write, or "" before any.
func (d *DryRun) LastWire() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}
