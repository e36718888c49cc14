package navigation

import (
	"math"

	"github.com/driftcars/autopilot/pkg/core"
	"gonum.org/v1/gonum/interp"
)

// Steering magnitude is interpolated from |heading| in [0, SteeringSpan]
// onto [0, SteeringMax].
const (
	SteeringSpan = 60.0
	SteeringMax  = 255.0
)

var steering = func() interp.PiecewiseLinear {
	var pl interp.PiecewiseLinear
	if err := pl.Fit([]float64{0, SteeringSpan}, []float64{0, SteeringMax}); err != nil {
		panic(err)
	}
	return pl
}()

// SteeringValue maps a heading magnitude to a steering byte, clamped at the
// ends and truncated toward zero.
func SteeringValue(deg float64) int {
	deg = math.Abs(deg)
	if deg > SteeringSpan {
		deg = SteeringSpan
	}
	return int(steering.Predict(deg))
}

// Output converts the current heading into an actuator command. The side
// follows the sign of the raw heading, so 182 is still a full right.
func (c *Car) Output() core.ActuatorCommand {
	cmd := core.ActuatorCommand{Light: true, Speed: c.Speed}
	h := c.Heading
	switch {
	case h > 0:
		cmd.Right = SteeringValue(h)
	case h < 0:
		cmd.Left = SteeringValue(h)
	}
	return cmd
}
