// Package v1 contains the v1 export format for recorded runs.
package v1

// FormatVersion identifies this export layout.
const FormatVersion = 1

// Export is the root JSON structure for v1 format
type Export struct {
	FormatVersion int     `json:"formatVersion"`
	RunID         string  `json:"runId"`
	Mode          string  `json:"mode"`
	Source        string  `json:"source"`
	Transport     string  `json:"transport"`
	Tags          string  `json:"tags"`
	StartTime     string  `json:"startTime"`
	EndTime       string  `json:"endTime,omitempty"`
	Duration      float64 `json:"duration"`
	Summary       Summary `json:"summary"`

	// Ticks rows are [offsetMs, x, y, heading, decisionCounter, evasive,
	// lost, light, speed, right, left, rayDistances].
	Ticks [][]any `json:"ticks"`
	// Commands rows are [offsetMs, wire, sent, error].
	Commands [][]any `json:"commands"`
}

// Summary aggregates the run for list views.
type Summary struct {
	Ticks        int     `json:"ticks"`
	EvasiveTicks int     `json:"evasiveTicks"`
	LostTicks    int     `json:"lostTicks"`
	Commands     int     `json:"commands"`
	SendFailures int     `json:"sendFailures"`
	MinDistance  int     `json:"minDistance"`
	MeanSpeed    float64 `json:"meanSpeed"`
	PathLength   float64 `json:"pathLength"`
}
