package main

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/driftcars/autopilot/internal/config"
	"github.com/driftcars/autopilot/internal/navigation"
	"github.com/driftcars/autopilot/internal/raster"
	"github.com/driftcars/autopilot/internal/tracker"
	"github.com/driftcars/autopilot/pkg/core"
)

// Size of the built-in practice track.
const (
	practiceWidth  = 640
	practiceHeight = 480
)

// sourceHandle is a tracking source with whatever it holds open.
type sourceHandle struct {
	tracker.Source
	Name   string
	closer io.Closer
}

func (s sourceHandle) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// practiceTrack is a white field with a black border and a black island in
// the middle, used when no track image is configured.
func practiceTrack() raster.Raster {
	g := raster.NewGrid(practiceWidth, practiceHeight, 255)
	g.Border(10, 0)
	g.FillRect(220, 180, 420, 300, 0)
	return g
}

func (a *app) loadTrack(path string) (raster.Raster, error) {
	if path == "" {
		a.logger.Info("No track image configured, using the practice track")
		return practiceTrack(), nil
	}
	img, err := raster.Load(path)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Track loaded", "path", path, "width", img.Width(), "height", img.Height())
	return img, nil
}

func (a *app) createSource(cfg config.SourceConfig, nav navigation.Config, rng *rand.Rand) (sourceHandle, error) {
	track, err := a.loadTrack(cfg.Track)
	if err != nil {
		return sourceHandle{}, err
	}

	switch cfg.Type {
	case "replay":
		r, f, err := tracker.OpenReplay(cfg.Recording, track, cfg.FrameInterval)
		if err != nil {
			return sourceHandle{}, err
		}
		r.Logger = a.logger
		a.logger.Info("Replaying recording", "path", cfg.Recording)
		return sourceHandle{Source: r, Name: "replay", closer: f}, nil

	case "simulator", "":
		start := core.Position{X: cfg.StartX, Y: cfg.StartY}
		if start.X == 0 && start.Y == 0 {
			start = core.Position{X: float64(track.Width()) / 2, Y: 60}
		}
		sim := &tracker.Simulator{
			Track:    track,
			Start:    start,
			Interval: cfg.FrameInterval,
			Config:   nav,
			Rand:     rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64())),
			MaxTicks: cfg.MaxTicks,
			Logger:   a.logger,
		}
		a.logger.Info("Simulating car", "startX", start.X, "startY", start.Y)
		return sourceHandle{Source: sim, Name: "simulator"}, nil

	default:
		return sourceHandle{}, fmt.Errorf("unknown tracking source %q", cfg.Type)
	}
}
