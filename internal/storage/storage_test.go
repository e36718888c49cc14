package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/driftcars/autopilot/internal/storage"
	"github.com/driftcars/autopilot/pkg/core"
)

var _ storage.Backend = storage.Nop{}

func TestUploadMetadataFields(t *testing.T) {
	meta := core.UploadMetadata{
		RunID:       "0b7e",
		Mode:        "vision",
		Tag:         "lap",
		RunDuration: 61.5,
	}

	assert.Equal(t, "0b7e", meta.RunID)
	assert.Equal(t, "vision", meta.Mode)
	assert.Equal(t, 61.5, meta.RunDuration)
	assert.Equal(t, "lap", meta.Tag)
}

func TestNop(t *testing.T) {
	var b storage.Backend = storage.Nop{}
	assert.NoError(t, b.Init())
	assert.NoError(t, b.StartRun(&core.Run{ID: "r"}))
	assert.NoError(t, b.RecordTicks([]core.TickRecord{{}}))
	assert.NoError(t, b.RecordCommands([]core.CommandRecord{{}}))
	assert.NoError(t, b.EndRun(&core.Run{ID: "r"}))
	assert.NoError(t, b.Close())
}
