// pkg/core/command.go
package core

// ActuatorCommand is the normalized output of one navigation tick.
//
// Speed is signed: positive drives forward, negative reverses. Right and Left
// are steering magnitudes; when both are positive Right takes priority.
type ActuatorCommand struct {
	Light bool `json:"light"`
	Speed int  `json:"speed"`
	Right int  `json:"right"`
	Left  int  `json:"left"`
}

// StopCommand returns the all-zero command with lights off.
func StopCommand() ActuatorCommand {
	return ActuatorCommand{}
}
