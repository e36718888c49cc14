package influx

import (
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/driftcars/autopilot/pkg/core"
)

// Measurement names.
const (
	MeasurementRun     = "run"
	MeasurementTick    = "tick"
	MeasurementCommand = "command"
)

var rayFields = [...]string{"ray_left", "ray_center", "ray_right"}

// RunPoint marks the start (or, with EndTime set, the end) of a run.
func RunPoint(run core.Run) *influxdb2_write.Point {
	t := run.StartTime
	event := "start"
	if !run.EndTime.IsZero() {
		t = run.EndTime
		event = "end"
	}
	p := influxdb2_write.NewPointWithMeasurement(MeasurementRun).
		AddTag("run", run.ID).
		AddTag("mode", run.Mode).
		AddTag("event", event).
		AddField("source", run.Source).
		AddField("transport", run.Transport).
		SetTime(t)
	if run.Tag != "" {
		p.AddTag("tag", run.Tag)
	}
	if event == "end" {
		p.AddField("duration", run.EndTime.Sub(run.StartTime).Seconds())
	}
	return p
}

// TickPoint converts one navigator tick.
func TickPoint(run core.Run, t core.TickRecord) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementTick).
		AddTag("run", run.ID).
		AddTag("mode", run.Mode).
		AddField("x", t.Position.X).
		AddField("y", t.Position.Y).
		AddField("lost", t.Lost).
		AddField("speed", t.Command.Speed).
		AddField("right", t.Command.Right).
		AddField("left", t.Command.Left).
		AddField("light", t.Command.Light).
		SetTime(t.Time)
	if t.Lost {
		return p
	}
	p.AddField("heading", t.Heading).
		AddField("decision_counter", t.DecisionCounter).
		AddField("evasive", t.Evasive)
	for i, r := range t.Rays {
		if i < len(rayFields) {
			p.AddField(rayFields[i], r.Distance)
		}
	}
	return p
}

// CommandPoint converts one sent wire command.
func CommandPoint(run core.Run, c core.CommandRecord) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementCommand).
		AddTag("run", run.ID).
		AddField("wire", c.Wire).
		AddField("sent", c.Sent).
		SetTime(c.Time)
	if c.Error != "" {
		p.AddField("error", c.Error)
	}
	return p
}
