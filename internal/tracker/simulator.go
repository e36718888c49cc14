package tracker

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/driftcars/autopilot/internal/channel"
	"github.com/driftcars/autopilot/internal/navigation"
	"github.com/driftcars/autopilot/internal/raster"
	"github.com/driftcars/autopilot/pkg/core"
)

// Simulator drives a virtual car around a raster with its own guidance and
// reports it the way a camera tracker would.
type Simulator struct {
	Track    raster.Raster
	Start    core.Position
	Interval time.Duration
	Config   navigation.Config
	Rand     *rand.Rand
	// MaxTicks stops the simulation after that many frames. Zero runs until
	// ctx is done.
	MaxTicks int

	Logger *slog.Logger
}

// Run steps the virtual car every Interval and publishes each move.
func (s *Simulator) Run(ctx context.Context, frames channel.Sender[raster.Raster], positions channel.Sender[core.TrackingSample]) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := s.Interval
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}

	car := navigation.NewCar(s.Start, s.Config, s.Rand)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Simulator started", "start", s.Start, "interval", interval)
	for tick := 0; s.MaxTicks == 0 || tick < s.MaxTicks; tick++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		prev := car.Position
		car.Step(s.Track)
		frames.TryPush(s.Track)
		positions.TryPush(core.TrackingSample{
			Position: car.Position,
			Movement: core.MovementVector{
				DX: int(math.Round(car.Position.X - prev.X)),
				DY: int(math.Round(car.Position.Y - prev.Y)),
			},
			Lost: !raster.InBounds(s.Track, int(car.Position.X), int(car.Position.Y)),
		})
	}
	logger.Info("Simulator finished", "ticks", s.MaxTicks)
	return nil
}
