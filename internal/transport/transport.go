// Package transport delivers encoded actuator commands to the car.
//
// The car exposes a single writable BLE characteristic. A write can be sent
// as a request (acknowledged by the peripheral) or as a command (fire and
// forget). Send prefers the request form and falls back to the command form.
package transport

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrWriteFailed is returned by Send when both write modes failed.
	ErrWriteFailed = errors.New("transport write failed")
	// ErrNotConnected is returned by a write on a transport with no link.
	ErrNotConnected = errors.New("transport not connected")
)

// Transport is a link to the car's command characteristic.
type Transport interface {
	// WriteRequest writes data and waits for the peripheral to confirm.
	WriteRequest(ctx context.Context, data []byte) error
	// WriteCommand writes data without confirmation.
	WriteCommand(ctx context.Context, data []byte) error
	// Connected reports whether the link is currently usable.
	Connected() bool
	Close() error
}

// Result describes how Send delivered a command.
type Result struct {
	Fallback bool
}

// Send writes data with WriteRequest and retries once with WriteCommand when
// the request fails. When both fail the returned error wraps ErrWriteFailed
// and both causes.
func Send(ctx context.Context, t Transport, data []byte) (Result, error) {
	reqErr := t.WriteRequest(ctx, data)
	if reqErr == nil {
		return Result{}, nil
	}
	cmdErr := t.WriteCommand(ctx, data)
	if cmdErr == nil {
		return Result{Fallback: true}, nil
	}
	return Result{Fallback: true}, fmt.Errorf("%w: request: %w; command: %w", ErrWriteFailed, reqErr, cmdErr)
}
