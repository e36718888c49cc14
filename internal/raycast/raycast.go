// Package raycast implements the boundary sensor: a ray marched across a
// raster until it meets a dark pixel.
package raycast

import (
	"github.com/driftcars/autopilot/internal/geo"
	"github.com/driftcars/autopilot/internal/raster"
	"github.com/driftcars/autopilot/pkg/core"
)

// Params controls how a ray samples the raster.
type Params struct {
	// MaxLength is the number of samples taken along the ray.
	MaxLength int
	// SkipDistance suppresses collisions at i <= SkipDistance so the car
	// does not see its own body.
	SkipDistance int
	// BlackThreshold is the luminance below which a pixel is boundary.
	BlackThreshold int
}

// DefaultParams returns the tuned defaults for the reference track.
func DefaultParams() Params {
	return Params{
		MaxLength:      200,
		SkipDistance:   20,
		BlackThreshold: 50,
	}
}

// Cast marches from origin along heading and returns the index of the first
// dark sample and its pixel. When nothing is hit the distance is MaxLength
// and the terminus is the full-length endpoint.
func Cast(origin core.Position, heading float64, p Params, r raster.Raster) (int, core.Position) {
	dx, dy := geo.Direction(heading)

	if r != nil {
		for i := 0; i < p.MaxLength; i++ {
			if i <= p.SkipDistance {
				continue
			}
			x := int(origin.X + dx*float64(i))
			y := int(origin.Y + dy*float64(i))
			if !raster.InBounds(r, x, y) {
				continue
			}
			if raster.Luminance(r.RGB(x, y)) < p.BlackThreshold {
				return i, core.Position{X: float64(x), Y: float64(y)}
			}
		}
	}

	return p.MaxLength, geo.Advance(origin, heading, float64(p.MaxLength))
}

// Ray is a boundary sensor mounted at a fixed offset from the car heading.
type Ray struct {
	Offset float64
	Params Params

	Distance int
	Terminus core.Position
}

// NewRay creates a ray at offset degrees relative to the heading. Until the
// first cast it reports the full length.
func NewRay(offset float64, p Params) *Ray {
	return &Ray{Offset: offset, Params: p, Distance: p.MaxLength}
}

// Cast updates the ray for a car standing at origin with the given heading.
func (r *Ray) Cast(origin core.Position, heading float64, ras raster.Raster) {
	r.Distance, r.Terminus = Cast(origin, heading+r.Offset, r.Params, ras)
}

// Reading snapshots the ray for recording.
func (r *Ray) Reading() core.RayReading {
	return core.RayReading{Offset: r.Offset, Distance: r.Distance, Terminus: r.Terminus}
}
