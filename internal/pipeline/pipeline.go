// Package pipeline wires a tracking source, the navigation engine and a
// transport together through bounded channels.
//
//	source -> frames, positions -> navigator -> commands -> sender -> transport
//
// Every stage runs in its own goroutine at its own cadence. Stages never
// block each other: a full channel drops its oldest item.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/driftcars/autopilot/internal/channel"
	"github.com/driftcars/autopilot/internal/command"
	"github.com/driftcars/autopilot/internal/navigation"
	"github.com/driftcars/autopilot/internal/protocol"
	"github.com/driftcars/autopilot/internal/raster"
	"github.com/driftcars/autopilot/internal/tracker"
	"github.com/driftcars/autopilot/internal/transport"
	"github.com/driftcars/autopilot/pkg/core"
)

// Config holds the pipeline settings.
type Config struct {
	Mode            string
	ChannelCapacity int
	ChannelTimeout  time.Duration
	SenderInterval  time.Duration
	StopOnExit      bool
	// Record enables the tick and command record channels.
	Record bool
}

// DefaultConfig returns the tuned defaults in vision mode.
func DefaultConfig() Config {
	return Config{
		Mode:            command.ModeVision,
		ChannelCapacity: 20,
		ChannelTimeout:  100 * time.Millisecond,
		SenderInterval:  5 * time.Millisecond,
		StopOnExit:      true,
	}
}

// Dependencies are the collaborators of a pipeline run.
type Dependencies struct {
	// Source feeds frames and positions. It is required in vision mode and
	// ignored in manual mode.
	Source     tracker.Source
	Transport  transport.Transport
	Navigation navigation.Config
	Translator command.Translator
	Protocol   protocol.Options
	Rand       *rand.Rand
	Logger     *slog.Logger
}

// Task is an auxiliary goroutine run alongside the pipeline stages, such as
// the operator console, the recorder or the status monitor.
type Task func(ctx context.Context) error

// Pipeline is one autopilot run.
type Pipeline struct {
	cfg  Config
	deps Dependencies

	frames    channel.Channel[raster.Raster]
	positions channel.Channel[core.TrackingSample]
	commands  channel.Channel[core.ActuatorCommand]
	ticks     channel.Channel[core.TickRecord]
	sent      channel.Channel[core.CommandRecord]

	tasks   []namedTask
	stats   stats
	metrics *metrics
	logger  *slog.Logger

	runOnce sync.Once
}

type namedTask struct {
	name string
	fn   Task
}

// New validates the configuration and allocates the channels.
func New(cfg Config, deps Dependencies) (*Pipeline, error) {
	switch cfg.Mode {
	case command.ModeVision:
		if deps.Source == nil {
			return nil, errors.New("vision mode requires a tracking source")
		}
	case command.ModeManual:
	default:
		return nil, fmt.Errorf("unknown control mode %q", cfg.Mode)
	}
	if deps.Transport == nil {
		return nil, errors.New("pipeline requires a transport")
	}
	if _, err := protocol.NewEncoder(deps.Protocol); err != nil {
		return nil, err
	}
	if cfg.ChannelTimeout <= 0 {
		cfg.ChannelTimeout = 100 * time.Millisecond
	}
	if cfg.SenderInterval <= 0 {
		cfg.SenderInterval = 5 * time.Millisecond
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	p := &Pipeline{
		cfg:       cfg,
		deps:      deps,
		frames:    channel.New[raster.Raster](cfg.ChannelCapacity),
		positions: channel.New[core.TrackingSample](cfg.ChannelCapacity),
		commands:  channel.New[core.ActuatorCommand](cfg.ChannelCapacity),
		logger:    deps.Logger,
	}
	if cfg.Record {
		// Records tolerate bursts better than control data.
		p.ticks = channel.NewBounded[core.TickRecord](cfg.ChannelCapacity * 50)
		p.sent = channel.NewBounded[core.CommandRecord](cfg.ChannelCapacity * 50)
	}

	m, err := newMetrics(p)
	if err != nil {
		return nil, err
	}
	p.metrics = m
	return p, nil
}

// Commands is where manual-mode producers publish actuator commands.
func (p *Pipeline) Commands() channel.Sender[core.ActuatorCommand] {
	return p.commands
}

// TickRecords returns the navigator's record channel, or nil when recording
// is disabled.
func (p *Pipeline) TickRecords() channel.Receiver[core.TickRecord] {
	if p.ticks == nil {
		return nil
	}
	return p.ticks
}

// CommandRecords returns the sender's record channel, or nil when recording
// is disabled.
func (p *Pipeline) CommandRecords() channel.Receiver[core.CommandRecord] {
	if p.sent == nil {
		return nil
	}
	return p.sent
}

// AddTask registers an auxiliary task. It must be called before Run.
func (p *Pipeline) AddTask(name string, fn Task) {
	p.tasks = append(p.tasks, namedTask{name: name, fn: fn})
}

// Run starts every stage and blocks until ctx is done, the source is
// exhausted, or a task fails. Afterwards it sends one neutral frame when
// StopOnExit is set. A pipeline can only be run once.
func (p *Pipeline) Run(ctx context.Context) error {
	ran := false
	p.runOnce.Do(func() { ran = true })
	if !ran {
		return errors.New("pipeline already ran")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.logger.Info("Pipeline starting", "mode", p.cfg.Mode, "capacity", p.cfg.ChannelCapacity)

	g, gctx := errgroup.WithContext(ctx)

	if p.cfg.Mode == command.ModeVision {
		g.Go(func() error {
			defer cancel()
			if err := p.deps.Source.Run(gctx, p.frames, p.positions); err != nil {
				return fmt.Errorf("tracking source: %w", err)
			}
			p.logger.Info("Tracking source finished")
			return nil
		})
		g.Go(func() error {
			p.runNavigator(gctx)
			return nil
		})
	}
	g.Go(func() error {
		p.runSender(gctx)
		return nil
	})
	for _, t := range p.tasks {
		g.Go(func() error {
			if err := t.fn(gctx); err != nil {
				return fmt.Errorf("%s: %w", t.name, err)
			}
			return nil
		})
	}

	err := g.Wait()

	if p.cfg.StopOnExit {
		p.emergencyStop()
	}

	p.frames.Close()
	p.positions.Close()
	p.commands.Close()

	p.logger.Info("Pipeline stopped",
		"ticksProcessed", p.stats.ticksProcessed.Load(),
		"ticksSkipped", p.stats.ticksSkipped.Load(),
		"commandsSent", p.stats.commandsSent.Load(),
		"sendFailures", p.stats.sendFailures.Load(),
	)
	return err
}

// emergencyStop sends an all-zero, light-off frame once.
func (p *Pipeline) emergencyStop() {
	enc, err := protocol.NewEncoder(p.deps.Protocol)
	if err != nil {
		return
	}
	if !p.deps.Transport.Connected() {
		p.logger.Warn("Emergency stop skipped, transport not connected")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := transport.Send(ctx, p.deps.Transport, enc.Bytes()); err != nil {
		p.logger.Error("Emergency stop failed", "error", err)
		return
	}
	p.logger.Info("Emergency stop sent", "wire", enc.Encode())
}
