package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/driftcars/autopilot/internal/config"
	"github.com/driftcars/autopilot/internal/storage"
	influxstorage "github.com/driftcars/autopilot/internal/storage/influx"
	"github.com/driftcars/autopilot/internal/storage/memory"
	pgstorage "github.com/driftcars/autopilot/internal/storage/postgres"
	sqlitestorage "github.com/driftcars/autopilot/internal/storage/sqlite"
)

// sessionFile names a per-session file in dir, such as a database dump.
func (a *app) sessionFile(dir, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", appName, a.start.Format("20060102_150405"), ext)), nil
}

func (a *app) createStorageBackend(cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Type {
	case "none":
		a.logger.Info("Run recording disabled")
		return storage.Nop{}, nil

	case "sqlite":
		path, err := a.sessionFile(cfg.SQLite.OutputDir, ".db")
		if err != nil {
			return nil, err
		}
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval:  cfg.SQLite.DumpInterval,
			DumpPath:      path,
			FlushInterval: cfg.FlushInterval,
			BatchSize:     cfg.BatchSize,
		}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		a.logger.Info("SQLite storage backend initialized", "dumpPath", path)
		return backend, nil

	case "postgres":
		fallback, err := a.sessionFile(cfg.SQLite.OutputDir, ".db")
		if err != nil {
			return nil, err
		}
		a.logger.Info("Postgres storage backend initialized", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		return pgstorage.New(pgstorage.Config{
			Conn:          cfg.Postgres,
			FallbackPath:  fallback,
			FlushInterval: cfg.FlushInterval,
			BatchSize:     cfg.BatchSize,
		}, a.zlog, a.logger), nil

	case "influx":
		backup, err := a.sessionFile(cfg.Memory.OutputDir, ".influx.log.gz")
		if err != nil {
			return nil, err
		}
		a.logger.Info("InfluxDB storage backend initialized", "host", cfg.Influx.Host, "bucket", cfg.Influx.Bucket)
		return influxstorage.New(cfg.Influx, a.zlog, backup), nil

	case "memory", "":
		a.logger.Info("Memory storage backend initialized", "outputDir", cfg.Memory.OutputDir)
		return memory.New(cfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
