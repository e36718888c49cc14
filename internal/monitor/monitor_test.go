package monitor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftcars/autopilot/internal/pipeline"
	"github.com/driftcars/autopilot/pkg/core"
)

func fixedStatus() pipeline.Status {
	return pipeline.Status{
		Mode:           "vision",
		Connected:      true,
		TicksProcessed: 42,
		SendFailures:   1,
		LastSendError:  "transport write failed",
		Channels: map[string]pipeline.ChannelStatus{
			"commands": {Len: 2, Cap: 20, Dropped: 3},
		},
	}
}

func TestGetStatus(t *testing.T) {
	s := NewService(Dependencies{
		Status: fixedStatus,
		Run: func() (core.Run, bool) {
			return core.Run{ID: "r-1", Mode: "vision"}, true
		},
	}, time.Second)

	var report Report
	require.NoError(t, json.Unmarshal([]byte(s.GetStatus()), &report))
	assert.Equal(t, uint64(42), report.Status.TicksProcessed)
	assert.Equal(t, uint64(3), report.Status.Channels["commands"].Dropped)
	require.NotNil(t, report.Run)
	assert.Equal(t, "r-1", report.Run.ID)
}

func TestSnapshot_NoRun(t *testing.T) {
	s := NewService(Dependencies{
		Status: fixedStatus,
		Run:    func() (core.Run, bool) { return core.Run{}, false },
	}, time.Second)

	assert.Nil(t, s.Snapshot().Run)
}

func TestRun_WritesStatusFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	s := NewService(Dependencies{Status: fixedStatus, StatusFile: path}, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 5*time.Millisecond)
	assert.True(t, s.IsRunning())

	cancel()
	require.NoError(t, <-done)
	assert.False(t, s.IsRunning())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var report Report
	require.NoError(t, json.Unmarshal(data, &report))
	assert.True(t, report.Status.Connected)
	assert.Equal(t, uint64(42), s.Last().Status.TicksProcessed)
}

func TestNewService_DefaultInterval(t *testing.T) {
	s := NewService(Dependencies{Status: fixedStatus}, 0)
	assert.Equal(t, 10*time.Second, s.interval)
}
