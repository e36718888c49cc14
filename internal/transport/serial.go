package transport

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// The serial bridge is a BLE UART dongle speaking a line protocol:
//
//	W <hex>\n   write with response, answered by "OK" or "ERR <reason>"
//	C <hex>\n   write without response
const (
	serialRequestPrefix = "W "
	serialCommandPrefix = "C "
	serialAck           = "OK"
	serialNack          = "ERR"
)

// ErrBridgeRejected is returned when the bridge answers a request with ERR.
var ErrBridgeRejected = errors.New("bridge rejected write")

// PortOptions describes the serial connection parameters of the bridge.
type PortOptions struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 115200
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	switch strings.TrimSpace(strings.ToUpper(opts.Parity)) {
	case "", "N", "NONE":
		opts.Parity = "N"
	case "E", "EVEN":
		opts.Parity = "E"
	case "O", "ODD":
		opts.Parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}

	return opts, nil
}

// SerialMode converts the options into the go.bug.st/serial mode.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: serial.OneStopBit,
	}
	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	switch opts.Parity {
	case "N":
		mode.Parity = serial.NoParity
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}

	return mode, nil
}

// Port is the subset of serial.Port the bridge needs.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// SerialConfig configures a serial bridge transport.
type SerialConfig struct {
	Path       string
	Options    PortOptions
	AckTimeout time.Duration
}

// Serial writes commands through a BLE UART bridge on a serial port.
type Serial struct {
	mu         sync.Mutex
	port       Port
	connected  bool
	ackTimeout time.Duration
	pending    []byte

	logger *slog.Logger
}

// OpenSerial opens the bridge port described by cfg.
func OpenSerial(cfg SerialConfig, logger *slog.Logger) (*Serial, error) {
	mode, err := cfg.Options.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(cfg.Path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Path, err)
	}
	return NewSerial(port, cfg.AckTimeout, logger), nil
}

// NewSerial wraps an already opened port.
func NewSerial(port Port, ackTimeout time.Duration, logger *slog.Logger) *Serial {
	if logger == nil {
		logger = slog.Default()
	}
	if ackTimeout <= 0 {
		ackTimeout = 50 * time.Millisecond
	}
	return &Serial{port: port, connected: true, ackTimeout: ackTimeout, logger: logger}
}

func (s *Serial) writeLine(prefix string, data []byte) error {
	if !s.connected {
		return ErrNotConnected
	}
	line := prefix + hex.EncodeToString(data) + "\n"
	if _, err := io.WriteString(s.port, line); err != nil {
		s.connected = false
		s.logger.Warn("Serial bridge write error", "error", err)
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

// WriteRequest sends a write-with-response and waits for the bridge reply.
func (s *Serial) WriteRequest(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeLine(serialRequestPrefix, data); err != nil {
		return err
	}

	deadline := time.Now().Add(s.ackTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	reply, err := s.readLine(ctx, deadline)
	if err != nil {
		return err
	}
	switch {
	case reply == serialAck:
		return nil
	case strings.HasPrefix(reply, serialNack):
		return fmt.Errorf("%w: %s", ErrBridgeRejected, strings.TrimSpace(strings.TrimPrefix(reply, serialNack)))
	default:
		return fmt.Errorf("unexpected bridge reply %q", reply)
	}
}

// WriteCommand sends a write-without-response.
func (s *Serial) WriteCommand(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLine(serialCommandPrefix, data)
}

// readLine reads until a newline or the deadline. Bytes after the newline
// are kept for the next call.
func (s *Serial) readLine(ctx context.Context, deadline time.Time) (string, error) {
	buf := make([]byte, 64)
	for {
		if i := bytes.IndexByte(s.pending, '\n'); i >= 0 {
			line := strings.TrimSpace(string(s.pending[:i]))
			s.pending = s.pending[i+1:]
			return line, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", fmt.Errorf("timeout waiting for bridge reply")
		}
		if err := s.port.SetReadTimeout(remaining); err != nil {
			return "", fmt.Errorf("serial set read timeout: %w", err)
		}
		n, err := s.port.Read(buf)
		if n > 0 {
			s.pending = append(s.pending, buf[:n]...)
		}
		if err != nil {
			s.connected = false
			return "", fmt.Errorf("serial read: %w", err)
		}
	}
}

func (s *Serial) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return s.port.Close()
}
