// Package protocol encodes actuator state into the fixed-width hex command
// understood by the car's BLE UART.
//
// Layout, all lowercase hex:
//
//	identifier(12) speed(4) drift(4) steering(4) light(4) checksum(2)
package protocol

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
)

const (
	// DefaultIdentifier is the device prefix of the reference car.
	DefaultIdentifier = "bf0a00082800"
	// DefaultChecksum is the trailer the car accepts. The firmware does not
	// verify it, so it is sent as configured.
	DefaultChecksum = "00"

	LightOn  = "0200"
	LightOff = "0000"

	// WireLength is the length of an encoded command in hex characters.
	WireLength = identifierLen + 4*4 + checksumLen

	// MaxValue is the exclusive upper bound of a control byte.
	MaxValue = 255

	identifierLen = 12
	checksumLen   = 2
)

// ErrInvalidField is returned when an identifier, checksum or wire string
// does not have the expected hex shape.
var ErrInvalidField = errors.New("invalid protocol field")

// DeviceControlState is the actuator state carried by one command.
type DeviceControlState struct {
	Speed    int  `json:"speed"`
	Drift    int  `json:"drift"`
	Steering int  `json:"steering"`
	Light    bool `json:"light"`
}

// Options configures the constant parts of the wire command.
type Options struct {
	Identifier string
	Checksum   string
}

// DefaultOptions returns the reference car's framing.
func DefaultOptions() Options {
	return Options{Identifier: DefaultIdentifier, Checksum: DefaultChecksum}
}

// Encoder owns a DeviceControlState. It is not safe for concurrent use; the
// sender goroutine is its only writer.
type Encoder struct {
	identifier string
	checksum   string
	state      DeviceControlState
}

// NewEncoder validates the framing and returns an encoder in the neutral
// state.
func NewEncoder(opts Options) (*Encoder, error) {
	if err := checkHex("identifier", opts.Identifier, identifierLen); err != nil {
		return nil, err
	}
	if err := checkHex("checksum", opts.Checksum, checksumLen); err != nil {
		return nil, err
	}
	return &Encoder{identifier: opts.Identifier, checksum: opts.Checksum}, nil
}

func checkHex(name, value string, n int) error {
	if len(value) != n {
		return fmt.Errorf("%w: %s %q must be %d hex characters", ErrInvalidField, name, value, n)
	}
	if _, err := hex.DecodeString(value); err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrInvalidField, name, value, err)
	}
	return nil
}

func valid(v int) bool {
	return v >= 0 && v < MaxValue
}

// SetSpeed stores a forward speed.
func (e *Encoder) SetSpeed(v int) {
	if valid(v) {
		e.state.Speed = v
	}
}

// SetReverseSpeed stores a reverse speed, encoded as 255-v.
func (e *Encoder) SetReverseSpeed(v int) {
	if valid(v) {
		e.state.Speed = MaxValue - v
	}
}

// IncreaseSpeed bumps the speed byte by one, saturating at 255.
func (e *Encoder) IncreaseSpeed() {
	if e.state.Speed < MaxValue {
		e.state.Speed++
	}
}

// DecreaseSpeed lowers the speed byte by one, saturating at 0.
func (e *Encoder) DecreaseSpeed() {
	if e.state.Speed > 0 {
		e.state.Speed--
	}
}

// DriveRight stores a right steering magnitude.
func (e *Encoder) DriveRight(v int) {
	if valid(v) {
		e.state.Steering = v
	}
}

// DriveLeft stores a left steering magnitude, encoded as 255-v.
func (e *Encoder) DriveLeft(v int) {
	if valid(v) {
		e.state.Steering = MaxValue - v
	}
}

func (e *Encoder) SetLight(on bool) {
	e.state.Light = on
}

// State returns a copy of the current state.
func (e *Encoder) State() DeviceControlState {
	return e.state
}

// Reset returns the encoder to the neutral state.
func (e *Encoder) Reset() {
	e.state = DeviceControlState{}
}

// Encode serializes the current state.
func (e *Encoder) Encode() string {
	return Format(e.identifier, e.state, e.checksum)
}

// Bytes returns the binary form of Encode.
func (e *Encoder) Bytes() []byte {
	b, _ := hex.DecodeString(e.Encode())
	return b
}

// Format renders a state with explicit framing.
func Format(identifier string, s DeviceControlState, checksum string) string {
	light := LightOff
	if s.Light {
		light = LightOn
	}
	return fmt.Sprintf("%s%04x%04x%04x%s%s", identifier, s.Speed, s.Drift, s.Steering, light, checksum)
}

// Parse decodes a wire command back into its framing and state.
func Parse(wire string) (Options, DeviceControlState, error) {
	if len(wire) != WireLength {
		return Options{}, DeviceControlState{}, fmt.Errorf("%w: wire length %d, want %d", ErrInvalidField, len(wire), WireLength)
	}
	if _, err := hex.DecodeString(wire); err != nil {
		return Options{}, DeviceControlState{}, fmt.Errorf("%w: %v", ErrInvalidField, err)
	}

	opts := Options{Identifier: wire[:identifierLen], Checksum: wire[WireLength-checksumLen:]}
	fields := wire[identifierLen : WireLength-checksumLen]

	var vals [4]int
	for i := range vals {
		v, err := strconv.ParseUint(fields[i*4:i*4+4], 16, 16)
		if err != nil {
			return Options{}, DeviceControlState{}, fmt.Errorf("%w: field %d: %v", ErrInvalidField, i, err)
		}
		vals[i] = int(v)
	}

	state := DeviceControlState{Speed: vals[0], Drift: vals[1], Steering: vals[2]}
	switch fields[12:16] {
	case LightOn:
		state.Light = true
	case LightOff:
	default:
		return Options{}, DeviceControlState{}, fmt.Errorf("%w: light field %q", ErrInvalidField, fields[12:16])
	}
	return opts, state, nil
}
