package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/driftcars/autopilot/internal/dispatcher"

type metrics struct {
	handled  metric.Int64Counter
	duration metric.Float64Histogram
}

func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)

	handled, err := m.Int64Counter(
		"operator.commands",
		metric.WithDescription("Operator commands by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating command counter: %w", err)
	}

	duration, err := m.Float64Histogram(
		"operator.command.duration",
		metric.WithDescription("Time spent in operator command handlers"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return &metrics{handled: handled, duration: duration}, nil
}

func (m *metrics) record(command string, took time.Duration, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrUnknownCommand):
		outcome = "unknown"
		command = "unknown"
	case err != nil:
		outcome = "rejected"
	}

	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	)
	m.handled.Add(ctx, 1, attrs)
	if outcome != "unknown" {
		m.duration.Record(ctx, float64(took.Microseconds())/1000, attrs)
	}
}
