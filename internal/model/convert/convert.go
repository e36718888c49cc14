package convert

import (
	"encoding/json"

	"github.com/driftcars/autopilot/internal/model"
	"github.com/driftcars/autopilot/pkg/core"
)

// RunToCore converts a GORM run back to its core form.
func RunToCore(r model.Run) core.Run {
	out := core.Run{
		ID:        r.ID,
		Mode:      r.Mode,
		Source:    r.Source,
		Transport: r.Transport,
		StartTime: r.StartTime,
		Tag:       r.Tag,
	}
	if r.EndTime.Valid {
		out.EndTime = r.EndTime.Time
	}
	return out
}

// TickRecordToCore converts a GORM tick record back to its core form.
// Malformed ray JSON yields a record without rays.
func TickRecordToCore(t model.TickRecord) core.TickRecord {
	var rays []core.RayReading
	if len(t.Rays) > 0 {
		_ = json.Unmarshal(t.Rays, &rays)
	}
	return core.TickRecord{
		Time:            t.Time,
		Position:        core.Position{X: t.X, Y: t.Y},
		Heading:         t.Heading,
		DecisionCounter: t.DecisionCounter,
		Evasive:         t.Evasive,
		Lost:            t.Lost,
		Rays:            rays,
		Command: core.ActuatorCommand{
			Light: t.Light,
			Speed: t.Speed,
			Right: t.Right,
			Left:  t.Left,
		},
	}
}

// CommandRecordToCore converts a GORM command record back to its core form.
func CommandRecordToCore(c model.CommandRecord) core.CommandRecord {
	return core.CommandRecord{
		Time:  c.Time,
		Wire:  c.Wire,
		Sent:  c.Sent,
		Error: c.Error,
	}
}
