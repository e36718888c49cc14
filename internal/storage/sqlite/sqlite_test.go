package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftcars/autopilot/internal/database"
	"github.com/driftcars/autopilot/internal/model"
	"github.com/driftcars/autopilot/internal/storage"
	"github.com/driftcars/autopilot/pkg/core"
)

var _ storage.Backend = (*Backend)(nil)

func testRun() *core.Run {
	return &core.Run{
		ID:        "5d0e8b1c-2222-4000-8000-000000000000",
		Mode:      "manual",
		Transport: "websocket",
		StartTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestClose_WritesFinalDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	b, err := New(Config{DumpPath: path}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	run := testRun()
	require.NoError(t, b.StartRun(run))
	require.NoError(t, b.RecordCommands([]core.CommandRecord{{Time: run.StartTime, Wire: "bf0a", Sent: true}}))
	run.EndTime = run.StartTime.Add(time.Second)
	require.NoError(t, b.EndRun(run))
	require.NoError(t, b.Close())

	disk, err := database.OpenSQLite(path)
	require.NoError(t, err)
	var count int64
	require.NoError(t, disk.Model(&model.CommandRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDumpLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "periodic.db")
	b, err := New(Config{DumpPath: path, DumpInterval: 5 * time.Millisecond}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartRun(testRun()))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestClose_NoDumpPath(t *testing.T) {
	b, err := New(Config{}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	assert.NoError(t, b.Close())
}
