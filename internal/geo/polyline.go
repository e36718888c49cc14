package geo

import (
	"fmt"

	"github.com/driftcars/autopilot/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Polyline builds a line string through the given positions.
func Polyline(points []core.Position) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, fmt.Errorf("polyline must have at least 2 points, got %d", len(points))
	}

	flatCoords := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flatCoords = append(flatCoords, p.X, p.Y)
	}

	seq := geom.NewSequence(flatCoords, geom.DimXY)
	return geom.NewLineString(seq)
}

// RayWKT renders a ray from origin to terminus as WKT, for storage
// backends without spatial types.
func RayWKT(origin, terminus core.Position) string {
	ls, err := Polyline([]core.Position{origin, terminus})
	if err != nil {
		return ""
	}
	return ls.AsText()
}
