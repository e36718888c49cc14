package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGELFHandler returns a JSON handler that ships records to a Graylog
// GELF UDP input at address. Close the returned closer on shutdown.
func NewGELFHandler(address, level string) (slog.Handler, io.Closer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GELF writer for %s: %w", address, err)
	}
	w.Facility = InstrumentationName
	return slog.NewJSONHandler(w, HandlerOptions(level)), w, nil
}
