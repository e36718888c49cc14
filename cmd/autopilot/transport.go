package main

import (
	"context"
	"fmt"
	"time"

	"github.com/driftcars/autopilot/internal/config"
	"github.com/driftcars/autopilot/internal/transport"
)

const dialTimeout = 10 * time.Second

func (a *app) createTransport(ctx context.Context, cfg config.TransportConfig) (transport.Transport, error) {
	switch cfg.Type {
	case "serial":
		s, err := transport.OpenSerial(transport.SerialConfig{
			Path: cfg.Serial.Port,
			Options: transport.PortOptions{
				BaudRate: cfg.Serial.BaudRate,
				DataBits: cfg.Serial.DataBits,
				StopBits: cfg.Serial.StopBits,
				Parity:   cfg.Serial.Parity,
			},
			AckTimeout: cfg.AckTimeout,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		a.logger.Info("Serial transport opened", "port", cfg.Serial.Port, "baudRate", cfg.Serial.BaudRate)
		return s, nil

	case "websocket":
		w := transport.NewWebSocket(transport.WebSocketConfig{
			URL:            cfg.WebSocket.URL,
			Secret:         cfg.WebSocket.Secret,
			Device:         cfg.Device,
			Characteristic: cfg.Characteristic,
			AckTimeout:     cfg.AckTimeout,
		}, a.logger)
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		if err := w.Dial(dialCtx); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("failed to connect to bridge %s: %w", cfg.WebSocket.URL, err)
		}
		a.logger.Info("WebSocket transport connected", "url", cfg.WebSocket.URL, "device", cfg.Device)
		return w, nil

	case "dryrun", "":
		a.logger.Info("Dry-run transport, commands are only logged")
		return transport.NewDryRun(a.logger), nil

	default:
		return nil, fmt.Errorf("unknown transport type %q", cfg.Type)
	}
}
