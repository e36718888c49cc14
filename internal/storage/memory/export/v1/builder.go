package v1

import (
	"math"
	"time"

	"github.com/driftcars/autopilot/pkg/core"
)

// RunData contains all the data needed to build an export
type RunData struct {
	Run      *core.Run
	Ticks    []core.TickRecord
	Commands []core.CommandRecord
}

func offsetMs(start, t time.Time) int64 {
	if start.IsZero() || t.IsZero() {
		return 0
	}
	return t.Sub(start).Milliseconds()
}

// Build creates an Export from the run data
func Build(data *RunData) Export {
	run := data.Run
	export := Export{
		FormatVersion: FormatVersion,
		RunID:         run.ID,
		Mode:          run.Mode,
		Source:        run.Source,
		Transport:     run.Transport,
		Tags:          run.Tag,
		StartTime:     run.StartTime.UTC().Format(time.RFC3339Nano),
		Ticks:         make([][]any, 0, len(data.Ticks)),
		Commands:      make([][]any, 0, len(data.Commands)),
	}
	if !run.EndTime.IsZero() {
		export.EndTime = run.EndTime.UTC().Format(time.RFC3339Nano)
		export.Duration = run.EndTime.Sub(run.StartTime).Seconds()
	}

	sum := Summary{MinDistance: -1}
	var speedTotal int
	var last *core.Position

	for _, t := range data.Ticks {
		distances := make([]int, len(t.Rays))
		for i, r := range t.Rays {
			distances[i] = r.Distance
			if sum.MinDistance < 0 || r.Distance < sum.MinDistance {
				sum.MinDistance = r.Distance
			}
		}

		export.Ticks = append(export.Ticks, []any{
			offsetMs(run.StartTime, t.Time), // [0] offsetMs
			t.Position.X,                    // [1] x
			t.Position.Y,                    // [2] y
			t.Heading,                       // [3] heading
			t.DecisionCounter,               // [4] decisionCounter
			boolToInt(t.Evasive),            // [5] evasive
			boolToInt(t.Lost),               // [6] lost
			boolToInt(t.Command.Light),      // [7] light
			t.Command.Speed,                 // [8] speed
			t.Command.Right,                 // [9] right
			t.Command.Left,                  // [10] left
			distances,                       // [11] rayDistances
		})

		sum.Ticks++
		if t.Evasive {
			sum.EvasiveTicks++
		}
		if t.Lost {
			sum.LostTicks++
			continue
		}
		speedTotal += t.Command.Speed
		if last != nil {
			sum.PathLength += math.Hypot(t.Position.X-last.X, t.Position.Y-last.Y)
		}
		pos := t.Position
		last = &pos
	}

	if tracked := sum.Ticks - sum.LostTicks; tracked > 0 {
		sum.MeanSpeed = float64(speedTotal) / float64(tracked)
	}
	if sum.MinDistance < 0 {
		sum.MinDistance = 0
	}

	for _, c := range data.Commands {
		export.Commands = append(export.Commands, []any{
			offsetMs(run.StartTime, c.Time),
			c.Wire,
			boolToInt(c.Sent),
			c.Error,
		})
		sum.Commands++
		if !c.Sent {
			sum.SendFailures++
		}
	}

	export.Summary = sum
	return export
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
