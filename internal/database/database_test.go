package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftcars/autopilot/internal/config"
	"github.com/driftcars/autopilot/internal/model"
)

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.PostgresConfig{
		Host: "db", Port: "5432", Username: "car", Password: "pw", Database: "runs",
	})
	assert.Equal(t, "host=db port=5432 user=car password=pw dbname=runs sslmode=disable", dsn)
}

func TestOpenSQLite_InMemoryIsPrivate(t *testing.T) {
	a, err := OpenSQLite("")
	require.NoError(t, err)
	b, err := OpenSQLite("")
	require.NoError(t, err)

	require.NoError(t, Migrate(a))
	require.NoError(t, a.Create(&model.Run{ID: "r-1", StartTime: time.Now()}).Error)

	assert.False(t, b.Migrator().HasTable(&model.Run{}))
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	db, err := OpenSQLite("")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Create(&model.Run{ID: "r-1", Mode: "vision", StartTime: time.Now()}).Error)

	path := filepath.Join(t.TempDir(), "dump.db")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))
	require.NoError(t, DumpMemoryDBToDisk(db, path))

	disk, err := OpenSQLite(path)
	require.NoError(t, err)
	var run model.Run
	require.NoError(t, disk.First(&run, "id = ?", "r-1").Error)
	assert.Equal(t, "vision", run.Mode)
}

func TestDumpMemoryDBToDisk_NoPath(t *testing.T) {
	db, err := OpenSQLite("")
	require.NoError(t, err)
	assert.Error(t, DumpMemoryDBToDisk(db, ""))
}

func TestGetBackupDBPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.db", "b.db", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.db"), 0o755))

	paths, err := GetBackupDBPaths(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.db"), filepath.Join(dir, "b.db")}, paths)
}

func TestManager_ConnectFallsBackToSQLite(t *testing.T) {
	m := NewManager(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "fallback.db")

	// Nothing listens on port 1.
	err := m.Connect(config.PostgresConfig{Host: "127.0.0.1", Port: "1", Username: "x", Database: "x"}, path)
	require.NoError(t, err)
	defer m.Close()

	assert.True(t, m.IsValid)
	assert.True(t, m.ShouldSaveLocal)
	assert.Equal(t, path, m.SqliteFilePath)
	require.NoError(t, m.Setup())
	assert.True(t, m.DB.Migrator().HasTable(&model.TickRecord{}))
}

func TestManager_ConnectWithoutFallback(t *testing.T) {
	m := NewManager(zerolog.Nop())
	err := m.Connect(config.PostgresConfig{Host: "127.0.0.1", Port: "1", Username: "x", Database: "x"}, "")
	assert.Error(t, err)
	assert.False(t, m.IsValid)
}
