package convert

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftcars/autopilot/internal/model"
	"github.com/driftcars/autopilot/pkg/core"
)

func sampleTick() core.TickRecord {
	return core.TickRecord{
		Time:            time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Position:        core.Position{X: 100, Y: 50},
		Heading:         12.5,
		DecisionCounter: 4,
		Evasive:         true,
		Rays: []core.RayReading{
			{Offset: -60, Distance: 30, Terminus: core.Position{X: 115, Y: 24}},
			{Offset: 0, Distance: 200, Terminus: core.Position{X: 300, Y: 50}},
			{Offset: 60, Distance: 90, Terminus: core.Position{X: 145, Y: 128}},
		},
		Command: core.ActuatorCommand{Light: true, Speed: 10, Right: 53},
	}
}

func TestCoreToRun(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := CoreToRun(core.Run{ID: "abc", Mode: "vision", StartTime: start})
	assert.Equal(t, "abc", r.ID)
	assert.False(t, r.EndTime.Valid)

	r = CoreToRun(core.Run{ID: "abc", StartTime: start, EndTime: start.Add(time.Minute)})
	assert.True(t, r.EndTime.Valid)
	assert.Equal(t, start.Add(time.Minute), RunToCore(r).EndTime)
}

func TestCoreToTickRecord(t *testing.T) {
	in := sampleTick()
	m := CoreToTickRecord("run-1", in)

	assert.Equal(t, "run-1", m.RunID)
	assert.Equal(t, 100.0, m.X)
	assert.Equal(t, 53, m.Right)
	assert.NotEmpty(t, m.Rays)
	assert.True(t, strings.HasPrefix(m.RayPaths, "MULTILINESTRING"))
	assert.Contains(t, m.RayPaths, "100 50")

	back := TickRecordToCore(m)
	assert.Equal(t, in, back)
}

func TestCoreToTickRecord_Lost(t *testing.T) {
	m := CoreToTickRecord("run-1", core.TickRecord{Lost: true})
	assert.True(t, m.Lost)
	assert.Empty(t, m.Rays)
	assert.Empty(t, m.RayPaths)

	back := TickRecordToCore(m)
	assert.Nil(t, back.Rays)
}

func TestTickRecordToCore_BadJSON(t *testing.T) {
	back := TickRecordToCore(model.TickRecord{Rays: []byte("{nope")})
	assert.Empty(t, back.Rays)
}

func TestCommandRecordRoundTrip(t *testing.T) {
	in := core.CommandRecord{
		Time:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Wire:  "bf0a00082800000a000000000200" + "00",
		Sent:  false,
		Error: "transport write failed",
	}
	m := CoreToCommandRecord("run-1", in)
	require.Equal(t, "run-1", m.RunID)
	assert.Equal(t, in, CommandRecordToCore(m))
}
