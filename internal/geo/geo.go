// Package geo holds the planar geometry shared by the ray caster, the
// navigation engine and the run recorder. Track space is image space: X to
// the right, Y downwards, angles in degrees clockwise from +X.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/driftcars/autopilot/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Direction returns the unit vector for a heading in degrees.
func Direction(deg float64) (dx, dy float64) {
	rad := Radians(deg)
	return math.Cos(rad), math.Sin(rad)
}

// Advance returns the point length units away from p along heading deg.
func Advance(p core.Position, deg, length float64) core.Position {
	dx, dy := Direction(deg)
	return core.Position{X: p.X + dx*length, Y: p.Y + dy*length}
}

// PositionFromString parses an "x,y" string into a core.Position.
func PositionFromString(coords string) (core.Position, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return core.Position{}, ErrInvalidCoordinates
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return core.Position{}, ErrInvalidCoordinates
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return core.Position{}, ErrInvalidCoordinates
	}
	return core.Position{X: x, Y: y}, nil
}

// Point converts a position to a 2D geometry point. Non-finite
// coordinates are rejected.
func Point(p core.Position) (geom.Point, error) {
	pt, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.X, Y: p.Y},
		Type: geom.DimXY,
	})
	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return pt, nil
}
