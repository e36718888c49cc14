// pkg/core/position.go
package core

import "math"

// Position is a point in frame/track space. X grows to the right and Y grows
// downwards, matching image coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MovementVector is the frame-to-frame displacement reported by a tracker.
type MovementVector struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// IsZero reports whether the vector carries no motion.
func (m MovementVector) IsZero() bool {
	return m.DX == 0 && m.DY == 0
}

// Magnitude returns the vector length in pixels.
func (m MovementVector) Magnitude() float64 {
	return math.Hypot(float64(m.DX), float64(m.DY))
}

// Angle returns the vector direction in degrees (-180, 180].
// A zero vector has angle 0.
func (m MovementVector) Angle() float64 {
	if m.IsZero() {
		return 0
	}
	return math.Atan2(float64(m.DY), float64(m.DX)) * 180 / math.Pi
}

// TrackingSample is one tracker output: where the vehicle is and how it moved
// since the previous frame.
type TrackingSample struct {
	Position Position       `json:"position"`
	Movement MovementVector `json:"movement"`
	// Lost is set when the tracker could not locate the vehicle in the frame.
	Lost bool `json:"lost,omitempty"`
}
