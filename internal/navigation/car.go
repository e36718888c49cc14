// Package navigation holds the reactive steering model: a car with three
// boundary rays and a small heading-decision state machine.
package navigation

import (
	"math/rand/v2"
	"time"

	"github.com/driftcars/autopilot/internal/geo"
	"github.com/driftcars/autopilot/internal/raster"
	"github.com/driftcars/autopilot/internal/raycast"
	"github.com/driftcars/autopilot/pkg/core"
)

// Ray indices, left to right.
const (
	RayLeft = iota
	RayCenter
	RayRight
)

// RayOffsets are the ray angles relative to the heading, indexed by RayLeft,
// RayCenter and RayRight.
var RayOffsets = [3]float64{-60, 0, 60}

// Config holds the tunables of the guidance model.
type Config struct {
	Speed             int
	MaxTurnAngle      int
	DecisionThreshold int
	EvasiveThreshold  int
	Rays              raycast.Params
}

// DefaultConfig returns the values the car was tuned with.
func DefaultConfig() Config {
	return Config{
		Speed:             10,
		MaxTurnAngle:      8,
		DecisionThreshold: 10,
		EvasiveThreshold:  80,
		Rays:              raycast.DefaultParams(),
	}
}

// Car is the navigation state of one run. It is owned by a single goroutine.
type Car struct {
	Position        core.Position
	Heading         float64
	PreviousHeading float64
	Speed           int
	MaxTurnAngle    int
	DecisionCounter int
	Rays            [3]*raycast.Ray

	// Evasive reports whether the last guidance pass took evasive action.
	Evasive bool

	cfg Config
	rng *rand.Rand
}

// NewCar seeds a car at pos facing +X. A nil rng selects a time-seeded
// source.
func NewCar(pos core.Position, cfg Config, rng *rand.Rand) *Car {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	c := &Car{
		Position:     pos,
		Speed:        cfg.Speed,
		MaxTurnAngle: cfg.MaxTurnAngle,
		cfg:          cfg,
		rng:          rng,
	}
	for i, off := range RayOffsets {
		c.Rays[i] = raycast.NewRay(off, cfg.Rays)
	}
	return c
}

// Step is the simulated tick: drive forward by Speed, look, decide.
func (c *Car) Step(r raster.Raster) {
	c.Position = geo.Advance(c.Position, c.Heading, float64(c.Speed))
	c.castRays(r)
	c.guide()
}

// ApplyFix is the external-fix tick. A zero movement vector leaves the car
// untouched and ApplyFix returns false.
func (c *Car) ApplyFix(pos core.Position, mv core.MovementVector, r raster.Raster) bool {
	if mv.IsZero() {
		return false
	}
	c.PreviousHeading = c.Heading
	c.Heading = mv.Angle()
	c.Position = pos
	c.castRays(r)
	c.guide()
	return true
}

func (c *Car) castRays(r raster.Raster) {
	for _, ray := range c.Rays {
		ray.Cast(c.Position, c.Heading, r)
	}
}

// Readings snapshots the three rays.
func (c *Car) Readings() []core.RayReading {
	out := make([]core.RayReading, len(c.Rays))
	for i, ray := range c.Rays {
		out[i] = ray.Reading()
	}
	return out
}

// Record captures the state after a tick for the run recorder.
func (c *Car) Record(now time.Time) core.TickRecord {
	return core.TickRecord{
		Time:            now,
		Position:        c.Position,
		Heading:         c.Heading,
		DecisionCounter: c.DecisionCounter,
		Evasive:         c.Evasive,
		Rays:            c.Readings(),
		Command:         c.Output(),
	}
}
