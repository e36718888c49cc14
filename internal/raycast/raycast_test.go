package raycast

import (
	"testing"

	"github.com/driftcars/autopilot/internal/raster"
	"github.com/driftcars/autopilot/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCast_BrightRasterReturnsMaxLength(t *testing.T) {
	r := raster.NewGrid(500, 500, 255)
	p := DefaultParams()

	d, term := Cast(core.Position{X: 100, Y: 100}, 0, p, r)
	assert.Equal(t, p.MaxLength, d)
	assert.InDelta(t, 300, term.X, 1e-9)
	assert.InDelta(t, 100, term.Y, 1e-9)
}

func TestCast_HitsWall(t *testing.T) {
	r := raster.NewGrid(500, 500, 255)
	r.FillRect(150, 0, 160, 500, 0) // vertical wall at x=150
	p := DefaultParams()

	d, term := Cast(core.Position{X: 100, Y: 100}, 0, p, r)
	assert.Equal(t, 50, d)
	assert.Equal(t, core.Position{X: 150, Y: 100}, term)
}

func TestCast_SkipsNearSamples(t *testing.T) {
	r := raster.NewGrid(500, 500, 255)
	r.FillRect(110, 0, 121, 500, 0) // wall covering i in [10, 20]
	p := DefaultParams()

	d, _ := Cast(core.Position{X: 100, Y: 100}, 0, p, r)
	assert.Equal(t, p.MaxLength, d, "samples with i <= skip distance never collide")

	r.FillRect(121, 0, 122, 500, 0)
	d, _ = Cast(core.Position{X: 100, Y: 100}, 0, p, r)
	assert.Equal(t, 21, d)
}

func TestCast_ThresholdIsStrict(t *testing.T) {
	r := raster.NewGrid(500, 500, 255)
	r.FillRect(150, 0, 160, 500, 50)
	p := DefaultParams()

	d, _ := Cast(core.Position{X: 100, Y: 100}, 0, p, r)
	assert.Equal(t, p.MaxLength, d, "luminance equal to threshold is not boundary")

	r.FillRect(150, 0, 160, 500, 49)
	d, _ = Cast(core.Position{X: 100, Y: 100}, 0, p, r)
	assert.Equal(t, 50, d)
}

func TestCast_OutOfBoundsIsNoCollision(t *testing.T) {
	r := raster.NewGrid(50, 50, 255)
	p := DefaultParams()

	d, term := Cast(core.Position{X: 25, Y: 25}, 90, p, r)
	assert.Equal(t, p.MaxLength, d)
	assert.InDelta(t, 25, term.X, 1e-9)
	assert.InDelta(t, 225, term.Y, 1e-9)
}

func TestCast_NilRaster(t *testing.T) {
	p := DefaultParams()
	d, _ := Cast(core.Position{}, 45, p, nil)
	assert.Equal(t, p.MaxLength, d)
}

func TestCast_DistanceBounds(t *testing.T) {
	r := raster.NewGrid(300, 300, 255)
	r.Border(5, 0)
	r.FillRect(140, 140, 160, 160, 0)
	p := DefaultParams()

	for heading := -180.0; heading < 180; heading += 7.5 {
		for _, origin := range []core.Position{{X: 50, Y: 50}, {X: 150, Y: 100}, {X: 250, Y: 280}} {
			d, term := Cast(origin, heading, p, r)
			require.GreaterOrEqual(t, d, 0)
			require.LessOrEqual(t, d, p.MaxLength)
			if d < p.MaxLength {
				assert.Greater(t, d, p.SkipDistance)
				red, _, _ := r.RGB(int(term.X), int(term.Y))
				assert.Less(t, int(red), p.BlackThreshold)
			}
		}
	}
}

func TestRay(t *testing.T) {
	r := raster.NewGrid(500, 500, 255)
	r.FillRect(0, 180, 500, 190, 0) // horizontal wall at y=180

	ray := NewRay(90, DefaultParams())
	assert.Equal(t, 200, ray.Distance)

	ray.Cast(core.Position{X: 100, Y: 100}, 0, r)
	assert.Equal(t, 80, ray.Distance)

	reading := ray.Reading()
	assert.Equal(t, 90.0, reading.Offset)
	assert.Equal(t, 80, reading.Distance)
	assert.Equal(t, core.Position{X: 100, Y: 180}, reading.Terminus)
}
