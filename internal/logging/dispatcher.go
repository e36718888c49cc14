package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// NewZerolog returns a leveled zerolog logger writing JSON lines to w, used
// by the storage managers and the operator console.
func NewZerolog(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// DispatcherLogger lets the dispatcher log key/value pairs through zerolog.
type DispatcherLogger struct {
	logger zerolog.Logger
}

func NewDispatcherLogger(logger zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{logger: logger}
}

func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	l.emit(zerolog.DebugLevel, msg, keysAndValues)
}

func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	l.emit(zerolog.InfoLevel, msg, keysAndValues)
}

func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	l.emit(zerolog.ErrorLevel, msg, keysAndValues)
}

// emit writes one entry. Keys that are not strings are formatted with %v;
// a trailing key without a value is dropped.
func (l *DispatcherLogger) emit(level zerolog.Level, msg string, kv []any) {
	e := l.logger.WithLevel(level)
	if e == nil {
		return
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		if err, isErr := kv[i+1].(error); isErr {
			e = e.AnErr(key, err)
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Msg(msg)
}
