package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMovementVector_Angle(t *testing.T) {
	tests := []struct {
		name string
		vec  MovementVector
		want float64
	}{
		{name: "zero", vec: MovementVector{}, want: 0},
		{name: "east", vec: MovementVector{DX: 5}, want: 0},
		{name: "south (image down)", vec: MovementVector{DY: 3}, want: 90},
		{name: "west", vec: MovementVector{DX: -2}, want: 180},
		{name: "north", vec: MovementVector{DY: -7}, want: -90},
		{name: "diagonal", vec: MovementVector{DX: 4, DY: 4}, want: 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.vec.Angle(), 1e-9)
		})
	}
}

func TestMovementVector_IsZero(t *testing.T) {
	assert.True(t, MovementVector{}.IsZero())
	assert.False(t, MovementVector{DX: 1}.IsZero())
	assert.False(t, MovementVector{DY: -1}.IsZero())
}

func TestMovementVector_Magnitude(t *testing.T) {
	assert.InDelta(t, 5.0, MovementVector{DX: 3, DY: -4}.Magnitude(), 1e-9)
}

func TestStopCommand(t *testing.T) {
	cmd := StopCommand()
	assert.False(t, cmd.Light)
	assert.Zero(t, cmd.Speed)
	assert.Zero(t, cmd.Right)
	assert.Zero(t, cmd.Left)
}
