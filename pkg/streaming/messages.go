// Package streaming defines the JSON messages exchanged with a BLE bridge
// over WebSocket.
package streaming

import (
	"encoding/json"
)

// Message type constants matching the bridge protocol.
const (
	TypeHello        = "hello"
	TypeWriteRequest = "write_request"
	TypeWriteCommand = "write_command"
	TypeStatus       = "status"
	TypeAck          = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AckMessage is the bridge's response to a hello or write_request.
type AckMessage struct {
	Type  string `json:"type"` // always "ack"
	For   string `json:"for"`  // the message type being acknowledged
	Seq   uint64 `json:"seq,omitempty"`
	Error string `json:"error,omitempty"`
}

// HelloPayload selects the peripheral and characteristic the bridge should
// write to. It is replayed after every reconnect.
type HelloPayload struct {
	Device         string `json:"device"`
	Characteristic string `json:"characteristic"`
}

// WritePayload carries one encoded actuator command as lowercase hex.
type WritePayload struct {
	Data string `json:"data"`
}

// StatusPayload is pushed by the bridge when the BLE link changes state.
type StatusPayload struct {
	Connected bool `json:"connected"`
}
