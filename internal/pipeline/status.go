package pipeline

import (
	"sync"
	"sync/atomic"
)

type stats struct {
	ticksProcessed atomic.Uint64
	ticksSkipped   atomic.Uint64
	lostFixes      atomic.Uint64
	commandsSent   atomic.Uint64
	fallbacks      atomic.Uint64
	sendFailures   atomic.Uint64
	notConnected   atomic.Uint64

	mu        sync.Mutex
	lastError string
}

func (s *stats) setLastError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

// ChannelStatus is a snapshot of one exchange channel.
type ChannelStatus struct {
	Len     int    `json:"len"`
	Cap     int    `json:"cap"`
	Dropped uint64 `json:"dropped"`
}

// Status is a point-in-time snapshot of the pipeline counters.
type Status struct {
	Mode           string                   `json:"mode"`
	Connected      bool                     `json:"connected"`
	TicksProcessed uint64                   `json:"ticksProcessed"`
	TicksSkipped   uint64                   `json:"ticksSkipped"`
	LostFixes      uint64                   `json:"lostFixes"`
	CommandsSent   uint64                   `json:"commandsSent"`
	Fallbacks      uint64                   `json:"fallbacks"`
	SendFailures   uint64                   `json:"sendFailures"`
	NotConnected   uint64                   `json:"notConnected"`
	LastSendError  string                   `json:"lastSendError,omitempty"`
	Channels       map[string]ChannelStatus `json:"channels"`
}

type sizedChannel interface {
	Len() int
	Cap() int
	Dropped() uint64
}

func channelStatus(c sizedChannel) ChannelStatus {
	return ChannelStatus{Len: c.Len(), Cap: c.Cap(), Dropped: c.Dropped()}
}

// channels lists the exchange channels by name, skipping disabled ones.
func (p *Pipeline) channels() map[string]sizedChannel {
	out := map[string]sizedChannel{
		"frames":    p.frames,
		"positions": p.positions,
		"commands":  p.commands,
	}
	if p.ticks != nil {
		out["ticks"] = p.ticks
	}
	if p.sent != nil {
		out["sent"] = p.sent
	}
	return out
}

// Status returns the current counters. It is safe for concurrent use.
func (p *Pipeline) Status() Status {
	st := Status{
		Mode:           p.cfg.Mode,
		Connected:      p.deps.Transport.Connected(),
		TicksProcessed: p.stats.ticksProcessed.Load(),
		TicksSkipped:   p.stats.ticksSkipped.Load(),
		LostFixes:      p.stats.lostFixes.Load(),
		CommandsSent:   p.stats.commandsSent.Load(),
		Fallbacks:      p.stats.fallbacks.Load(),
		SendFailures:   p.stats.sendFailures.Load(),
		NotConnected:   p.stats.notConnected.Load(),
		Channels:       make(map[string]ChannelStatus),
	}
	p.stats.mu.Lock()
	st.LastSendError = p.stats.lastError
	p.stats.mu.Unlock()

	for name, c := range p.channels() {
		st.Channels[name] = channelStatus(c)
	}
	return st
}
