package geo

import (
	"math"
	"strings"
	"testing"

	"github.com/driftcars/autopilot/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirection(t *testing.T) {
	tests := []struct {
		deg    float64
		dx, dy float64
	}{
		{0, 1, 0},
		{90, 0, 1},
		{180, -1, 0},
		{-90, 0, -1},
		{60, 0.5, math.Sqrt(3) / 2},
	}

	for _, tt := range tests {
		dx, dy := Direction(tt.deg)
		assert.InDelta(t, tt.dx, dx, 1e-9, "deg=%v", tt.deg)
		assert.InDelta(t, tt.dy, dy, 1e-9, "deg=%v", tt.deg)
	}
}

func TestAdvance(t *testing.T) {
	p := Advance(core.Position{X: 10, Y: 20}, 90, 5)
	assert.InDelta(t, 10, p.X, 1e-9)
	assert.InDelta(t, 25, p.Y, 1e-9)
}

func TestPositionFromString(t *testing.T) {
	p, err := PositionFromString("120.5, 300")
	require.NoError(t, err)
	assert.Equal(t, core.Position{X: 120.5, Y: 300}, p)

	for _, bad := range []string{"", "1", "1,2,3", "a,2", "1,b"} {
		_, err := PositionFromString(bad)
		assert.ErrorIs(t, err, ErrInvalidCoordinates, "input %q", bad)
	}
}

func TestPoint(t *testing.T) {
	pt, err := Point(core.Position{X: 3, Y: 4})
	require.NoError(t, err)
	xy, ok := pt.XY()
	require.True(t, ok)
	assert.Equal(t, 3.0, xy.X)
	assert.Equal(t, 4.0, xy.Y)
}

func TestPolyline(t *testing.T) {
	ls, err := Polyline([]core.Position{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5}})
	require.NoError(t, err)
	assert.Equal(t, 3, ls.Coordinates().Length())

	_, err = Polyline([]core.Position{{X: 1, Y: 1}})
	require.Error(t, err)

	_, err = Polyline([]core.Position{{X: 1, Y: 1}, {X: 1, Y: 1}})
	require.Error(t, err, "a line needs two distinct points")
}

func TestPoint_NonFinite(t *testing.T) {
	_, err := Point(core.Position{X: math.NaN(), Y: 1})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	_, err = Point(core.Position{X: 1, Y: math.Inf(1)})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestRayWKT(t *testing.T) {
	wkt := RayWKT(core.Position{X: 1, Y: 2}, core.Position{X: 3, Y: 4})
	assert.True(t, strings.HasPrefix(wkt, "LINESTRING"), wkt)
	assert.Contains(t, wkt, "1 2")
	assert.Contains(t, wkt, "3 4")
}
