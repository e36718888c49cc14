// Package operator implements manual driving: text commands from an
// operator console become actuator commands on the command channel.
package operator

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/driftcars/autopilot/internal/channel"
	"github.com/driftcars/autopilot/internal/dispatcher"
	"github.com/driftcars/autopilot/pkg/core"
)

// SpeedStep is the change applied by "faster" and "slower".
const SpeedStep = 5

// ErrBadArgument is returned when a command argument is missing or invalid.
var ErrBadArgument = errors.New("bad command argument")

// Operator holds the stick state of a manual session. Every accepted
// command publishes the full state.
type Operator struct {
	mu      sync.Mutex
	state   core.ActuatorCommand
	out     channel.Sender[core.ActuatorCommand]
	ceiling int
}

// New creates an operator publishing to out. Magnitudes are limited to
// ceiling.
func New(out channel.Sender[core.ActuatorCommand], ceiling int) *Operator {
	return &Operator{out: out, ceiling: ceiling}
}

// Register installs the operator commands on d.
func (o *Operator) Register(d *dispatcher.Dispatcher) error {
	return errors.Join(
		d.Register("light", o.handleLight, dispatcher.Logged(), dispatcher.Help("light on|off")),
		d.Register("speed", o.handleSpeed, dispatcher.Logged(), dispatcher.Help("speed <n>, negative reverses")),
		d.Register("faster", o.handleStep(SpeedStep), dispatcher.Logged(), dispatcher.Aliases("+")),
		d.Register("slower", o.handleStep(-SpeedStep), dispatcher.Logged(), dispatcher.Aliases("-")),
		d.Register("left", o.handleSteer(false), dispatcher.Logged(), dispatcher.Help("left <n>")),
		d.Register("right", o.handleSteer(true), dispatcher.Logged(), dispatcher.Help("right <n>")),
		d.Register("center", o.handleCenter, dispatcher.Logged(), dispatcher.Aliases("c")),
		d.Register("stop", o.handleStop, dispatcher.Logged(), dispatcher.Aliases("x")),
		d.Register("status", o.handleStatus, dispatcher.Aliases("s")),
	)
}

// State returns the current stick state.
func (o *Operator) State() core.ActuatorCommand {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Operator) update(fn func(*core.ActuatorCommand)) core.ActuatorCommand {
	o.mu.Lock()
	fn(&o.state)
	cmd := o.state
	o.mu.Unlock()
	o.out.TryPush(cmd)
	return cmd
}

func (o *Operator) clamp(v, lo int) int {
	return max(lo, min(v, o.ceiling))
}

func intArg(e dispatcher.Event) (int, error) {
	if len(e.Args) != 1 {
		return 0, fmt.Errorf("%w: %s expects one integer", ErrBadArgument, e.Command)
	}
	v, err := strconv.Atoi(e.Args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrBadArgument, e.Command, e.Args[0])
	}
	return v, nil
}

func (o *Operator) handleLight(e dispatcher.Event) (any, error) {
	if len(e.Args) != 1 {
		return nil, fmt.Errorf("%w: light expects on or off", ErrBadArgument)
	}
	var on bool
	switch e.Args[0] {
	case "on", "1":
		on = true
	case "off", "0":
	default:
		return nil, fmt.Errorf("%w: light %q", ErrBadArgument, e.Args[0])
	}
	return o.update(func(c *core.ActuatorCommand) { c.Light = on }), nil
}

func (o *Operator) handleSpeed(e dispatcher.Event) (any, error) {
	v, err := intArg(e)
	if err != nil {
		return nil, err
	}
	return o.update(func(c *core.ActuatorCommand) { c.Speed = o.clamp(v, -o.ceiling) }), nil
}

func (o *Operator) handleStep(delta int) dispatcher.HandlerFunc {
	return func(dispatcher.Event) (any, error) {
		return o.update(func(c *core.ActuatorCommand) { c.Speed = o.clamp(c.Speed+delta, -o.ceiling) }), nil
	}
}

// handleSteer sets one side and clears the other, like a single stick axis.
func (o *Operator) handleSteer(right bool) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		v, err := intArg(e)
		if err != nil {
			return nil, err
		}
		v = o.clamp(v, 0)
		return o.update(func(c *core.ActuatorCommand) {
			if right {
				c.Right, c.Left = v, 0
			} else {
				c.Left, c.Right = v, 0
			}
		}), nil
	}
}

func (o *Operator) handleCenter(dispatcher.Event) (any, error) {
	return o.update(func(c *core.ActuatorCommand) { c.Right, c.Left = 0, 0 }), nil
}

// handleStop zeroes speed and steering and keeps the light as it is.
func (o *Operator) handleStop(dispatcher.Event) (any, error) {
	return o.update(func(c *core.ActuatorCommand) {
		*c = core.ActuatorCommand{Light: c.Light}
	}), nil
}

func (o *Operator) handleStatus(dispatcher.Event) (any, error) {
	return o.State(), nil
}
