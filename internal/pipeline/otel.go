package pipeline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/driftcars/autopilot/internal/pipeline"

type metrics struct {
	processed metric.Int64Counter
	skipped   metric.Int64Counter
	sent      metric.Int64Counter
	failures  metric.Int64Counter

	size    metric.Int64ObservableGauge
	dropped metric.Int64ObservableGauge
}

// newMetrics registers the pipeline instruments on the global meter
// provider, which is a no-op until telemetry is configured.
func newMetrics(p *Pipeline) (*metrics, error) {
	m := otel.Meter(instrumentationName)
	out := &metrics{}

	var err error
	if out.processed, err = m.Int64Counter(
		"pipeline.ticks.processed",
		metric.WithDescription("Navigator ticks that produced a command"),
	); err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}
	if out.skipped, err = m.Int64Counter(
		"pipeline.ticks.skipped",
		metric.WithDescription("Navigator ticks skipped on a channel timeout"),
	); err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}
	if out.sent, err = m.Int64Counter(
		"pipeline.commands.sent",
		metric.WithDescription("Wire commands delivered to the transport"),
	); err != nil {
		return nil, fmt.Errorf("creating sent counter: %w", err)
	}
	if out.failures, err = m.Int64Counter(
		"pipeline.send.failures",
		metric.WithDescription("Wire commands that failed in both write modes"),
	); err != nil {
		return nil, fmt.Errorf("creating failure counter: %w", err)
	}

	if out.size, err = m.Int64ObservableGauge(
		"pipeline.channel.size",
		metric.WithDescription("Current number of items in a channel"),
	); err != nil {
		return nil, fmt.Errorf("creating channel size gauge: %w", err)
	}
	if out.dropped, err = m.Int64ObservableGauge(
		"pipeline.channel.dropped",
		metric.WithDescription("Items evicted from a full channel"),
	); err != nil {
		return nil, fmt.Errorf("creating channel dropped gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			for name, c := range p.channels() {
				attrs := metric.WithAttributes(attribute.String("channel", name))
				o.ObserveInt64(out.size, int64(c.Len()), attrs)
				o.ObserveInt64(out.dropped, int64(c.Dropped()), attrs)
			}
			return nil
		},
		out.size, out.dropped,
	)
	if err != nil {
		return nil, fmt.Errorf("registering channel callback: %w", err)
	}
	return out, nil
}

func (m *metrics) ticksProcessed(ctx context.Context) {
	m.processed.Add(ctx, 1)
}

func (m *metrics) tickSkipped(ctx context.Context, missing string) {
	m.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String("missing", missing)))
}

func (m *metrics) commandSent(ctx context.Context, fallback bool) {
	m.sent.Add(ctx, 1, metric.WithAttributes(attribute.Bool("fallback", fallback)))
}

func (m *metrics) sendFailed(ctx context.Context) {
	m.failures.Add(ctx, 1)
}
