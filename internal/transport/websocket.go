package transport

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/driftcars/autopilot/pkg/streaming"
)

const (
	sendChSize   = 256
	ackChSize    = 16
	maxReconnect = 10
	maxBackoff   = 30 * time.Second
	writeWait    = 2 * time.Second
)

// WebSocketConfig configures a network BLE bridge connection.
type WebSocketConfig struct {
	URL            string
	Secret         string
	Device         string
	Characteristic string
	AckTimeout     time.Duration
}

// WebSocket talks to a BLE bridge service. Each connection gets one write
// loop and one read loop; both exit once their connection is replaced.
type WebSocket struct {
	mu     sync.Mutex
	conn   *ws.Conn
	// wmu serializes data frames; gorilla allows one concurrent writer.
	wmu    sync.Mutex
	sendCh chan []byte
	ackCh  chan streaming.AckMessage
	done   chan struct{}
	closed bool

	// linkUp is the BLE link state reported by the bridge.
	linkUp atomic.Bool
	seq    atomic.Uint64

	cfg WebSocketConfig

	// Cached hello message for reconnect replay.
	cachedHello []byte

	logger *slog.Logger
}

// NewWebSocket creates an unconnected bridge transport.
func NewWebSocket(cfg WebSocketConfig, logger *slog.Logger) *WebSocket {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = 100 * time.Millisecond
	}
	return &WebSocket{
		sendCh: make(chan []byte, sendChSize),
		ackCh:  make(chan streaming.AckMessage, ackChSize),
		done:   make(chan struct{}),
		cfg:    cfg,
		logger: logger,
	}
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, seq uint64, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Seq: seq, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// Dial connects to the bridge, starts the read and write loops and selects
// the configured peripheral.
func (w *WebSocket) Dial(ctx context.Context) error {
	conn, err := w.dialOnce(ctx)
	if err != nil {
		return err
	}

	hello, err := marshalEnvelope(streaming.TypeHello, 0, streaming.HelloPayload{
		Device:         w.cfg.Device,
		Characteristic: w.cfg.Characteristic,
	})
	if err != nil {
		_ = conn.Close()
		return err
	}

	w.mu.Lock()
	w.conn = conn
	w.cachedHello = hello
	w.mu.Unlock()

	go w.writeLoop(conn)
	go w.readLoop(conn)

	if err := w.sendAndWait(ctx, hello, streaming.TypeHello, 0); err != nil {
		return fmt.Errorf("bridge hello: %w", err)
	}
	w.linkUp.Store(true)
	return nil
}

// dialOnce performs a single WebSocket dial with the secret query param.
func (w *WebSocket) dialOnce(ctx context.Context) (*ws.Conn, error) {
	u, err := url.Parse(w.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	if w.cfg.Secret != "" {
		q := u.Query()
		q.Set("secret", w.cfg.Secret)
		u.RawQuery = q.Encode()
	}

	conn, _, err := ws.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// current reports whether conn is still the active connection.
func (w *WebSocket) current(conn *ws.Conn) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn == conn
}

// writeFrame writes one text frame under the write lock.
func (w *WebSocket) writeFrame(conn *ws.Conn, data []byte) error {
	w.wmu.Lock()
	defer w.wmu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}

// writeLoop drains sendCh onto conn. It returns on a write error, on
// shutdown or once conn has been replaced.
func (w *WebSocket) writeLoop(conn *ws.Conn) {
	for {
		select {
		case <-w.done:
			return
		case data := <-w.sendCh:
			if !w.current(conn) {
				// hand the frame to the loop of the new connection
				select {
				case w.sendCh <- data:
				default:
				}
				return
			}
			if err := w.writeFrame(conn, data); err != nil {
				w.logger.Warn("WebSocket write error", "error", err)
				go w.reconnect(conn)
				return
			}
		}
	}
}

// readLoop routes acks to ackCh and tracks link status messages.
func (w *WebSocket) readLoop(conn *ws.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				return
			default:
			}
			if !w.current(conn) {
				return
			}
			w.logger.Warn("WebSocket read error", "error", err)
			go w.reconnect(conn)
			return
		}

		var env streaming.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			w.logger.Debug("Malformed bridge message", "raw", string(message))
			continue
		}

		switch env.Type {
		case streaming.TypeAck:
			var ack streaming.AckMessage
			if err := json.Unmarshal(message, &ack); err != nil {
				continue
			}
			select {
			case w.ackCh <- ack:
			default:
				w.logger.Debug("Ack channel full, dropping", "for", ack.For)
			}
		case streaming.TypeStatus:
			var st streaming.StatusPayload
			if err := json.Unmarshal(env.Payload, &st); err != nil {
				continue
			}
			w.linkUp.Store(st.Connected)
			w.logger.Info("Bridge link status", "connected", st.Connected)
		}
	}
}

// reconnect replaces the failed connection with exponential backoff. On
// success it replays the cached hello and starts loops for the new
// connection. Only the first caller for a given failed conn proceeds.
func (w *WebSocket) reconnect(failed *ws.Conn) {
	w.mu.Lock()
	if w.closed || w.conn != failed {
		w.mu.Unlock()
		return
	}
	w.conn = nil
	w.mu.Unlock()
	_ = failed.Close()
	w.linkUp.Store(false)

	backoff := time.Second
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		select {
		case <-w.done:
			return
		case <-time.After(backoff):
		}

		w.logger.Info("Reconnecting to bridge", "attempt", attempt, "backoff", backoff)

		conn, err := w.dialOnce(context.Background())
		if err != nil {
			w.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		w.mu.Lock()
		cached := w.cachedHello
		w.mu.Unlock()

		if cached != nil {
			if err := w.writeFrame(conn, cached); err != nil {
				w.logger.Warn("Failed to replay hello after reconnect", "error", err)
				_ = conn.Close()
				continue
			}
		}

		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			_ = conn.Close()
			return
		}
		w.conn = conn
		w.mu.Unlock()

		w.logger.Info("Bridge reconnected", "attempt", attempt)
		w.linkUp.Store(true)
		go w.writeLoop(conn)
		go w.readLoop(conn)
		return
	}

	w.logger.Error("Bridge reconnect failed after max attempts", "maxAttempts", maxReconnect)
}

// send pushes data to the write loop. Non-blocking; drops if channel full.
func (w *WebSocket) send(data []byte) error {
	select {
	case w.sendCh <- data:
		return nil
	default:
		return errors.New("websocket send channel full")
	}
}

// sendAndWait sends data and blocks until the bridge acknowledges with a
// matching ack or the timeout expires.
func (w *WebSocket) sendAndWait(ctx context.Context, data []byte, ackFor string, seq uint64) error {
	if err := w.send(data); err != nil {
		return err
	}

	timer := time.NewTimer(w.cfg.AckTimeout)
	defer timer.Stop()

	for {
		select {
		case ack := <-w.ackCh:
			if ack.For != ackFor || ack.Seq != seq {
				// Stale ack from an earlier timed-out request.
				continue
			}
			if ack.Error != "" {
				return fmt.Errorf("bridge: %s", ack.Error)
			}
			return nil
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", ackFor)
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return fmt.Errorf("connection closed while waiting for ack of %q", ackFor)
		}
	}
}

// WriteRequest sends a write_request and waits for its ack.
func (w *WebSocket) WriteRequest(ctx context.Context, data []byte) error {
	if !w.Connected() {
		return ErrNotConnected
	}
	seq := w.seq.Add(1)
	msg, err := marshalEnvelope(streaming.TypeWriteRequest, seq, streaming.WritePayload{Data: hex.EncodeToString(data)})
	if err != nil {
		return err
	}
	return w.sendAndWait(ctx, msg, streaming.TypeWriteRequest, seq)
}

// WriteCommand sends a write_command without waiting.
func (w *WebSocket) WriteCommand(_ context.Context, data []byte) error {
	if !w.Connected() {
		return ErrNotConnected
	}
	msg, err := marshalEnvelope(streaming.TypeWriteCommand, w.seq.Add(1), streaming.WritePayload{Data: hex.EncodeToString(data)})
	if err != nil {
		return err
	}
	return w.send(msg)
}

// Connected reports whether the socket is up and the bridge holds a BLE link.
func (w *WebSocket) Connected() bool {
	w.mu.Lock()
	up := w.conn != nil
	w.mu.Unlock()
	return up && w.linkUp.Load()
}

// Close sends a WebSocket close frame and stops the loops. The close frame
// goes out as a control message, which gorilla permits alongside a data
// write in progress.
func (w *WebSocket) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	conn := w.conn
	w.conn = nil
	w.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		return conn.Close()
	}
	return nil
}
