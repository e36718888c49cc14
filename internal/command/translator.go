// Package command turns normalized actuator commands into encoder state.
package command

import (
	"fmt"

	"github.com/driftcars/autopilot/pkg/core"
)

// Control modes and their default ceilings.
const (
	ModeManual = "manual"
	ModeVision = "vision"

	DefaultManualCeiling = 100
	DefaultVisionCeiling = 30
)

// Actuator is the subset of the protocol encoder the translator drives.
type Actuator interface {
	SetLight(on bool)
	SetSpeed(v int)
	SetReverseSpeed(v int)
	DriveRight(v int)
	DriveLeft(v int)
}

// Translator applies commands with every magnitude clamped to Ceiling.
type Translator struct {
	Ceiling int
}

// ForMode returns a translator with the ceiling configured for mode.
func ForMode(mode string, manualCeiling, visionCeiling int) (Translator, error) {
	switch mode {
	case ModeManual:
		return Translator{Ceiling: manualCeiling}, nil
	case ModeVision:
		return Translator{Ceiling: visionCeiling}, nil
	default:
		return Translator{}, fmt.Errorf("unknown control mode %q", mode)
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Normalize returns cmd with its magnitudes clamped to the ceiling.
func (t Translator) Normalize(cmd core.ActuatorCommand) core.ActuatorCommand {
	return core.ActuatorCommand{
		Light: cmd.Light,
		Speed: clamp(cmd.Speed, -t.Ceiling, t.Ceiling),
		Right: clamp(cmd.Right, 0, t.Ceiling),
		Left:  clamp(cmd.Left, 0, t.Ceiling),
	}
}

// Apply writes cmd into a. A zero speed is written as reverse 0, and a
// command with no steering centers the wheels.
func (t Translator) Apply(cmd core.ActuatorCommand, a Actuator) {
	cmd = t.Normalize(cmd)

	a.SetLight(cmd.Light)

	switch {
	case cmd.Speed > 0:
		a.SetSpeed(cmd.Speed)
	case cmd.Speed < 0:
		a.SetReverseSpeed(-cmd.Speed)
	default:
		a.SetReverseSpeed(0)
	}

	switch {
	case cmd.Right > 0:
		a.DriveRight(cmd.Right)
	case cmd.Left > 0:
		a.DriveLeft(cmd.Left)
	default:
		a.DriveRight(0)
	}
}
