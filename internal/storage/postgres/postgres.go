// Package postgres implements the storage.Backend interface on PostgreSQL.
// It connects through database.Manager, which can fall back to a local
// SQLite file, and delegates recording to the GORM backend.
package postgres

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/zerolog"

	"github.com/driftcars/autopilot/internal/config"
	"github.com/driftcars/autopilot/internal/database"
	gormstorage "github.com/driftcars/autopilot/internal/storage/gorm"
	"github.com/driftcars/autopilot/pkg/core"
)

var errNotInitialized = errors.New("postgres backend not initialized")

// Config holds configuration for the Postgres storage backend.
type Config struct {
	Conn          config.PostgresConfig
	FallbackPath  string // SQLite file used when Postgres is unreachable; empty disables
	FlushInterval time.Duration
	BatchSize     int
}

// Backend records runs in Postgres.
type Backend struct {
	cfg     Config
	manager *database.Manager
	inner   *gormstorage.Backend
	logger  *slog.Logger
}

// New creates a new Postgres storage backend. No connection is made until
// Init.
func New(cfg Config, dbLogger zerolog.Logger, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		cfg:     cfg,
		manager: database.NewManager(dbLogger),
		logger:  logger,
	}
}

// Init connects, migrates the schema and starts the DB writer.
func (b *Backend) Init() error {
	if err := b.manager.Connect(b.cfg.Conn, b.cfg.FallbackPath); err != nil {
		return err
	}
	if err := b.manager.Setup(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	if b.manager.ShouldSaveLocal {
		b.logger.Warn("Postgres unreachable, recording to local SQLite", "path", b.manager.SqliteFilePath)
	}

	b.inner = gormstorage.New(gormstorage.Dependencies{
		DB:            b.manager.DB,
		Logger:        b.logger,
		FlushInterval: b.cfg.FlushInterval,
		BatchSize:     b.cfg.BatchSize,
	})
	return b.inner.Init()
}

// Local reports whether the backend fell back to SQLite.
func (b *Backend) Local() bool {
	return b.manager.ShouldSaveLocal
}

// Close flushes pending rows and closes the connection.
func (b *Backend) Close() error {
	if b.inner == nil {
		return nil
	}
	return errors.Join(b.inner.Close(), b.manager.Close())
}

func (b *Backend) StartRun(run *core.Run) error {
	if b.inner == nil {
		return errNotInitialized
	}
	return b.inner.StartRun(run)
}

func (b *Backend) EndRun(run *core.Run) error {
	if b.inner == nil {
		return errNotInitialized
	}
	return b.inner.EndRun(run)
}

func (b *Backend) RecordTicks(ticks []core.TickRecord) error {
	if b.inner == nil {
		return errNotInitialized
	}
	return b.inner.RecordTicks(ticks)
}

func (b *Backend) RecordCommands(cmds []core.CommandRecord) error {
	if b.inner == nil {
		return errNotInitialized
	}
	return b.inner.RecordCommands(cmds)
}
