// Package convert maps core run types to GORM models and back.
package convert

import (
	"database/sql"
	"encoding/json"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/driftcars/autopilot/internal/geo"
	"github.com/driftcars/autopilot/internal/model"
	"github.com/driftcars/autopilot/pkg/core"
)

// CoreToRun converts a core run to its GORM model.
func CoreToRun(r core.Run) model.Run {
	out := model.Run{
		ID:        r.ID,
		Mode:      r.Mode,
		Source:    r.Source,
		Transport: r.Transport,
		StartTime: r.StartTime,
		Tag:       r.Tag,
	}
	if !r.EndTime.IsZero() {
		out.EndTime = sql.NullTime{Time: r.EndTime, Valid: true}
	}
	return out
}

// RayPaths renders each ray as a line from the car to the ray's terminus.
// It returns an empty string when there are no rays.
func RayPaths(origin core.Position, rays []core.RayReading) string {
	if len(rays) == 0 {
		return ""
	}
	lines := make([]geom.LineString, 0, len(rays))
	for _, r := range rays {
		ls, err := geo.Polyline([]core.Position{origin, r.Terminus})
		if err != nil {
			continue
		}
		lines = append(lines, ls)
	}
	return geom.NewMultiLineString(lines).AsText()
}

// CoreToTickRecord converts a tick record of the given run.
func CoreToTickRecord(runID string, t core.TickRecord) model.TickRecord {
	out := model.TickRecord{
		Time:            t.Time,
		RunID:           runID,
		X:               t.Position.X,
		Y:               t.Position.Y,
		Heading:         t.Heading,
		DecisionCounter: t.DecisionCounter,
		Evasive:         t.Evasive,
		Lost:            t.Lost,
		RayPaths:        RayPaths(t.Position, t.Rays),
		Light:           t.Command.Light,
		Speed:           t.Command.Speed,
		Right:           t.Command.Right,
		Left:            t.Command.Left,
	}
	if len(t.Rays) > 0 {
		if data, err := json.Marshal(t.Rays); err == nil {
			out.Rays = data
		}
	}
	return out
}

// CoreToCommandRecord converts a command record of the given run.
func CoreToCommandRecord(runID string, c core.CommandRecord) model.CommandRecord {
	return model.CommandRecord{
		Time:  c.Time,
		RunID: runID,
		Wire:  c.Wire,
		Sent:  c.Sent,
		Error: c.Error,
	}
}
