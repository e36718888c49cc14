package pipeline

import (
	"context"
	"time"

	"github.com/driftcars/autopilot/internal/protocol"
	"github.com/driftcars/autopilot/internal/transport"
	"github.com/driftcars/autopilot/pkg/core"
)

// runSender folds pending commands into the encoder state and writes the
// current frame to the transport every SenderInterval. The frame is resent
// even when nothing changed so the car keeps its last command alive.
func (p *Pipeline) runSender(ctx context.Context) {
	// New already validated the options.
	enc, _ := protocol.NewEncoder(p.deps.Protocol)

	ticker := time.NewTicker(p.cfg.SenderInterval)
	defer ticker.Stop()

	var lastWire string
	lastFailed := false

	for {
		if ctx.Err() != nil {
			return
		}
		for _, cmd := range p.commands.Drain() {
			p.deps.Translator.Apply(cmd, enc)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !p.deps.Transport.Connected() {
			p.stats.notConnected.Add(1)
			continue
		}

		wire := enc.Encode()
		res, err := transport.Send(ctx, p.deps.Transport, enc.Bytes())
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			p.stats.sendFailures.Add(1)
			p.stats.setLastError(err)
			p.metrics.sendFailed(ctx)
			if !lastFailed {
				p.logger.Warn("Command write failed", "wire", wire, "error", err)
			}
		} else {
			p.stats.commandsSent.Add(1)
			if res.Fallback {
				p.stats.fallbacks.Add(1)
			}
			p.metrics.commandSent(ctx, res.Fallback)
		}

		// Only state changes and failures are recorded; the steady resend
		// would otherwise flood the recorder.
		if p.sent != nil && (wire != lastWire || err != nil) {
			rec := core.CommandRecord{Time: time.Now(), Wire: wire, Sent: err == nil}
			if err != nil {
				rec.Error = err.Error()
			}
			p.sent.TryPush(rec)
		}
		lastWire = wire
		lastFailed = err != nil
	}
}
