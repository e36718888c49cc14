package pipeline

import (
	"context"
	"time"

	"github.com/driftcars/autopilot/internal/navigation"
	"github.com/driftcars/autopilot/pkg/core"
)

// runNavigator pairs the next position with the next frame and publishes a
// steering command for every tick. The first good fix only seeds the car.
//
// Positions and frames come from two independent channels. They are assumed
// to correlate; a drop on one side can pair a fix with a neighbouring frame.
func (p *Pipeline) runNavigator(ctx context.Context) {
	var car *navigation.Car
	timeout := p.cfg.ChannelTimeout

	for ctx.Err() == nil {
		sample, ok := p.positions.PopWithTimeout(ctx, timeout)
		if !ok {
			p.skipTick(ctx, "position")
			continue
		}
		frame, ok := p.frames.PopWithTimeout(ctx, timeout)
		if !ok {
			p.skipTick(ctx, "frame")
			continue
		}

		now := time.Now()

		if sample.Lost {
			stop := core.StopCommand()
			p.commands.TryPush(stop)
			p.stats.lostFixes.Add(1)
			p.recordTick(core.TickRecord{
				Time:     now,
				Position: sample.Position,
				Lost:     true,
				Command:  stop,
			})
			p.logger.Debug("Tracking lost, stopping car", "position", sample.Position)
			continue
		}

		if car == nil {
			car = navigation.NewCar(sample.Position, p.deps.Navigation, p.deps.Rand)
			p.logger.Info("Car seeded", "position", sample.Position)
			continue
		}

		// A zero movement vector leaves the car (and thus the command) as is.
		car.ApplyFix(sample.Position, sample.Movement, frame)
		p.commands.TryPush(car.Output())
		p.stats.ticksProcessed.Add(1)
		p.metrics.ticksProcessed(ctx)
		p.recordTick(car.Record(now))
	}
}

func (p *Pipeline) skipTick(ctx context.Context, missing string) {
	if ctx.Err() != nil {
		return
	}
	p.stats.ticksSkipped.Add(1)
	p.metrics.tickSkipped(ctx, missing)
}

func (p *Pipeline) recordTick(rec core.TickRecord) {
	if p.ticks != nil {
		p.ticks.TryPush(rec)
	}
}
