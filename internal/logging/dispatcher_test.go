package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestDispatcherLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		log   func(*DispatcherLogger)
	}{
		{"debug", func(l *DispatcherLogger) { l.Debug("debug message", "key1", "value1", "key2", 42) }},
		{"info", func(l *DispatcherLogger) { l.Info("info message", "key1", "value1", "key2", 42) }},
		{"error", func(l *DispatcherLogger) { l.Error("error message", "key1", "value1", "key2", 42) }},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
			tt.log(dl)

			entry := decodeLine(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, tt.level+" message", entry["message"])
			assert.Equal(t, "value1", entry["key1"])
			assert.Equal(t, float64(42), entry["key2"]) // JSON numbers are float64
		})
	}
}

func TestDispatcherLogger_NoKeyValues(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))
	dl.Info("simple message")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "simple message", entry["message"])
}

func TestDispatcherLogger_OddKeyValues(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))
	dl.Info("odd", "a", 1, "dangling", 7, "b")

	entry := decodeLine(t, &buf)
	assert.Equal(t, float64(1), entry["a"])
	assert.Equal(t, float64(7), entry["dangling"])
	assert.NotContains(t, entry, "b")
}

func TestDispatcherLogger_ErrorsAndKeys(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))
	dl.Error("command rejected", "command", "speed", "error", errors.New("bad command argument"), 3, "three")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "speed", entry["command"])
	assert.Equal(t, "bad command argument", entry["error"])
	assert.Equal(t, "three", entry["3"])
}

func TestDispatcherLogger_BelowLevel(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))
	dl.Debug("handling event", "command", "light")
	assert.Empty(t, buf.String())
}

func TestNewZerolog_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(&buf, "WARN")
	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("shown")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "shown", entry["message"])
	assert.Contains(t, entry, "time")

	buf.Reset()
	fallback := NewZerolog(&buf, "bogus")
	fallback.Debug().Msg("hidden")
	assert.Empty(t, buf.String(), "unknown level falls back to info")

	fallback.Info().Msg("shown")
	assert.Equal(t, "shown", decodeLine(t, &buf)["message"])
}
