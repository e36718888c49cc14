// Package session tracks the run that is currently in progress.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/driftcars/autopilot/pkg/core"
)

// Context holds the current run.
type Context struct {
	mu  sync.RWMutex
	run *core.Run
}

// NewContext creates a Context with no run loaded.
func NewContext() *Context {
	return &Context{}
}

// Start begins a new run with a fresh id and returns a copy of it.
func (c *Context) Start(mode, source, transport, tag string) core.Run {
	run := &core.Run{
		ID:        uuid.NewString(),
		Mode:      mode,
		Source:    source,
		Transport: transport,
		StartTime: time.Now().UTC(),
		Tag:       tag,
	}

	c.mu.Lock()
	c.run = run
	c.mu.Unlock()
	return *run
}

// End stamps the end time of the current run and returns it. ok is false
// when no run was started.
func (c *Context) End() (run core.Run, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run == nil {
		return core.Run{}, false
	}
	if c.run.EndTime.IsZero() {
		c.run.EndTime = time.Now().UTC()
	}
	return *c.run, true
}

// Current returns a copy of the current run.
func (c *Context) Current() (core.Run, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.run == nil {
		return core.Run{}, false
	}
	return *c.run, true
}

// LogAttrs returns the run id and mode for log records. It matches
// logging.ContextProvider.
func (c *Context) LogAttrs() []slog.Attr {
	run, ok := c.Current()
	if !ok {
		return nil
	}
	return []slog.Attr{slog.String("run", run.ID), slog.String("mode", run.Mode)}
}
