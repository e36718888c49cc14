// pkg/core/run.go
package core

import "time"

// Run describes one pipeline session from start to shutdown.
type Run struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Source    string    `json:"source"`
	Transport string    `json:"transport"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime,omitempty"`
	Tag       string    `json:"tag,omitempty"`
}

// RayReading is the state of one boundary ray after a cast.
type RayReading struct {
	Offset   float64  `json:"offset"`
	Distance int      `json:"distance"`
	Terminus Position `json:"terminus"`
}

// TickRecord is the navigation state captured after one navigator tick.
type TickRecord struct {
	Time            time.Time       `json:"time"`
	Position        Position        `json:"position"`
	Heading         float64         `json:"heading"`
	DecisionCounter int             `json:"decisionCounter"`
	Evasive         bool            `json:"evasive"`
	Lost            bool            `json:"lost,omitempty"`
	Rays            []RayReading    `json:"rays"`
	Command         ActuatorCommand `json:"command"`
}

// CommandRecord is one wire command handed to the transport.
type CommandRecord struct {
	Time  time.Time `json:"time"`
	Wire  string    `json:"wire"`
	Sent  bool      `json:"sent"`
	Error string    `json:"error,omitempty"`
}

// UploadMetadata describes an exported run file for the web frontend.
type UploadMetadata struct {
	RunID       string
	Mode        string
	Tag         string
	RunDuration float64
}
