// Package monitor periodically reports the pipeline status.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/driftcars/autopilot/internal/pipeline"
	"github.com/driftcars/autopilot/pkg/core"
)

// Report is the status document written on every interval.
type Report struct {
	Time   time.Time       `json:"time"`
	Run    *core.Run       `json:"run,omitempty"`
	Status pipeline.Status `json:"status"`
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Status func() pipeline.Status
	// Run returns the current run, if any.
	Run    func() (core.Run, bool)
	Logger *slog.Logger
	// StatusFile is rewritten with the latest report when set.
	StatusFile string
}

// Service manages status monitoring
type Service struct {
	deps     Dependencies
	interval time.Duration

	mu        sync.RWMutex
	isRunning bool
	last      Report
}

// NewService creates a new monitor service
func NewService(deps Dependencies, interval time.Duration) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Service{deps: deps, interval: interval}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot collects a fresh report.
func (s *Service) Snapshot() Report {
	r := Report{Time: time.Now().UTC(), Status: s.deps.Status()}
	if s.deps.Run != nil {
		if run, ok := s.deps.Run(); ok {
			r.Run = &run
		}
	}
	return r
}

// GetStatus returns the current status as indented JSON.
func (s *Service) GetStatus() string {
	out, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(out)
}

// Last returns the report produced by the most recent tick.
func (s *Service) Last() Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Run reports every interval until ctx is done. It matches pipeline.Task.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	logger := s.deps.Logger
	logger.Debug("Starting status monitor", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		s.tick()
	}
}

func (s *Service) tick() {
	report := s.Snapshot()

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	st := report.Status
	s.deps.Logger.Info("Pipeline status",
		"connected", st.Connected,
		"ticksProcessed", st.TicksProcessed,
		"ticksSkipped", st.TicksSkipped,
		"commandsSent", st.CommandsSent,
		"sendFailures", st.SendFailures,
		"lastSendError", st.LastSendError,
	)
	for name, c := range st.Channels {
		if c.Dropped > 0 {
			s.deps.Logger.Debug("Channel drops", "channel", name, "len", c.Len, "dropped", c.Dropped)
		}
	}

	if s.deps.StatusFile != "" {
		if err := s.writeStatusFile(report); err != nil {
			s.deps.Logger.Error("Error writing status file", "error", err)
		}
	}
}

func (s *Service) writeStatusFile(r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.deps.StatusFile, append(data, '\n'), 0o644)
}
