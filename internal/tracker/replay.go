package tracker

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/driftcars/autopilot/internal/channel"
	"github.com/driftcars/autopilot/internal/raster"
	"github.com/driftcars/autopilot/pkg/core"
)

// ErrMalformedSample is returned for a recording row that cannot be parsed.
var ErrMalformedSample = errors.New("malformed tracking sample")

// ParseSample parses an "x,y,dx,dy[,lost]" record.
func ParseSample(fields []string) (core.TrackingSample, error) {
	if len(fields) < 4 || len(fields) > 5 {
		return core.TrackingSample{}, fmt.Errorf("%w: want 4 or 5 fields, got %d", ErrMalformedSample, len(fields))
	}
	var nums [4]float64
	for i := range nums {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return core.TrackingSample{}, fmt.Errorf("%w: field %d: %v", ErrMalformedSample, i, err)
		}
		nums[i] = v
	}
	s := core.TrackingSample{
		Position: core.Position{X: nums[0], Y: nums[1]},
		Movement: core.MovementVector{DX: int(nums[2]), DY: int(nums[3])},
	}
	if len(fields) == 5 {
		lost, err := strconv.ParseBool(strings.TrimSpace(fields[4]))
		if err != nil {
			return core.TrackingSample{}, fmt.Errorf("%w: lost flag: %v", ErrMalformedSample, err)
		}
		s.Lost = lost
	}
	return s, nil
}

// Replay publishes recorded samples against a fixed track.
type Replay struct {
	Track    raster.Raster
	Reader   io.Reader
	Interval time.Duration

	Logger *slog.Logger
}

// OpenReplay opens a CSV recording from disk. The caller closes the file
// after Run returns.
func OpenReplay(path string, track raster.Raster, interval time.Duration) (*Replay, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open recording: %w", err)
	}
	return &Replay{Track: track, Reader: f, Interval: interval}, f, nil
}

// Run publishes one sample per Interval and returns nil at EOF. A header row
// and lines starting with '#' are skipped.
func (r *Replay) Run(ctx context.Context, frames channel.Sender[raster.Raster], positions channel.Sender[core.TrackingSample]) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := r.Interval
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}

	cr := csv.NewReader(r.Reader)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	n := 0
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			logger.Info("Replay finished", "samples", n)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read recording: %w", err)
		}

		sample, err := ParseSample(rec)
		if err != nil {
			if row == 0 {
				continue // header
			}
			return fmt.Errorf("row %d: %w", row+1, err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		frames.TryPush(r.Track)
		positions.TryPush(sample)
		n++
	}
}
