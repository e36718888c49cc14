// Package influxstorage records runs as InfluxDB time series.
package influxstorage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/driftcars/autopilot/internal/config"
	"github.com/driftcars/autopilot/internal/influx"
	"github.com/driftcars/autopilot/pkg/core"
)

// ErrNoRun is returned when records arrive before StartRun.
var ErrNoRun = errors.New("no run started")

const connectTimeout = 5 * time.Second

// Backend writes run, tick and command points through an influx.Manager.
type Backend struct {
	manager *influx.Manager

	mu  sync.Mutex
	run *core.Run
}

// New creates a backend. backupPath receives gzipped line protocol when the
// server cannot be reached.
func New(cfg config.InfluxConfig, log zerolog.Logger, backupPath string) *Backend {
	return &Backend{manager: influx.NewManager(cfg, log, backupPath)}
}

// Manager exposes the underlying connection.
func (b *Backend) Manager() *influx.Manager {
	return b.manager
}

func (b *Backend) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return b.manager.Connect(ctx)
}

func (b *Backend) Close() error {
	return b.manager.Close()
}

func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	r := *run
	b.run = &r
	b.mu.Unlock()
	return b.manager.WritePoint(influx.RunPoint(r))
}

func (b *Backend) EndRun(run *core.Run) error {
	b.mu.Lock()
	if b.run == nil {
		b.mu.Unlock()
		return ErrNoRun
	}
	b.run.EndTime = run.EndTime
	r := *b.run
	b.mu.Unlock()

	if err := b.manager.WritePoint(influx.RunPoint(r)); err != nil {
		return err
	}
	return b.manager.Flush()
}

func (b *Backend) current() (core.Run, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.run == nil {
		return core.Run{}, ErrNoRun
	}
	return *b.run, nil
}

func (b *Backend) RecordTicks(ticks []core.TickRecord) error {
	run, err := b.current()
	if err != nil {
		return err
	}
	for _, t := range ticks {
		if err := b.manager.WritePoint(influx.TickPoint(run, t)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) RecordCommands(cmds []core.CommandRecord) error {
	run, err := b.current()
	if err != nil {
		return err
	}
	for _, c := range cmds {
		if err := b.manager.WritePoint(influx.CommandPoint(run, c)); err != nil {
			return err
		}
	}
	return nil
}
