package navigation

import (
	"gonum.org/v1/gonum/floats"
)

func (c *Car) distances() []float64 {
	d := make([]float64, len(c.Rays))
	for i, ray := range c.Rays {
		d[i] = float64(ray.Distance)
	}
	return d
}

// minMaxRays returns the indices of the shortest and longest ray. Ties go to
// the lowest index.
func (c *Car) minMaxRays() (minIdx, maxIdx int) {
	d := c.distances()
	return floats.MinIdx(d), floats.MaxIdx(d)
}

func (c *Car) guide() {
	minIdx, maxIdx := c.minMaxRays()
	if c.Rays[minIdx].Distance < c.cfg.EvasiveThreshold {
		c.Evasive = true
		c.evade(maxIdx)
		return
	}
	c.Evasive = false
	c.checkDecisionCounter()
}

// evade turns toward the most open side. The counter is left alone.
func (c *Car) evade(maxIdx int) {
	switch maxIdx {
	case RayLeft:
		c.Heading = float64(c.randInt(-c.MaxTurnAngle, 0))
	case RayCenter:
		if c.Rays[RayLeft].Distance > c.Rays[RayRight].Distance {
			c.Heading = float64(c.randInt(-c.MaxTurnAngle, 0))
		} else {
			c.Heading = float64(c.randInt(0, c.MaxTurnAngle))
		}
	default:
		c.Heading = float64(c.randInt(0, c.MaxTurnAngle))
	}
}

func (c *Car) checkDecisionCounter() {
	if c.DecisionCounter >= c.cfg.DecisionThreshold {
		c.Heading += float64(c.randInt(-c.MaxTurnAngle, c.MaxTurnAngle))
		c.DecisionCounter = 0
		return
	}
	c.DecisionCounter++
}

// randInt samples uniformly from [lo, hi].
func (c *Car) randInt(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + c.rng.IntN(hi-lo+1)
}
