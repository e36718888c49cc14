package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftcars/autopilot/pkg/streaming"
)

type bridgeLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
	secret   string
}

func (b *bridgeLog) add(env streaming.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, env)
}

func (b *bridgeLog) all() []streaming.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]streaming.Envelope, len(b.messages))
	copy(cp, b.messages)
	return cp
}

// testBridge acks hello and write_request. Writes whose data is "dead" are
// rejected; writes whose data is "0f" make the bridge report a lost link.
func testBridge(t *testing.T) (*httptest.Server, *bridgeLog) {
	t.Helper()
	bl := &bridgeLog{}

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bl.mu.Lock()
		bl.secret = r.URL.Query().Get("secret")
		bl.mu.Unlock()

		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			bl.add(env)

			var reply any
			switch env.Type {
			case streaming.TypeHello:
				reply = streaming.AckMessage{Type: streaming.TypeAck, For: env.Type}
			case streaming.TypeWriteRequest:
				var p streaming.WritePayload
				_ = json.Unmarshal(env.Payload, &p)
				ack := streaming.AckMessage{Type: streaming.TypeAck, For: env.Type, Seq: env.Seq}
				switch p.Data {
				case "dead":
					ack.Error = "gatt write rejected"
				case "0f":
					raw, _ := json.Marshal(streaming.StatusPayload{Connected: false})
					reply = streaming.Envelope{Type: streaming.TypeStatus, Payload: raw}
				}
				if reply == nil {
					reply = ack
				}
			default:
				continue
			}
			data, _ := json.Marshal(reply)
			if err := c.WriteMessage(ws.TextMessage, data); err != nil {
				return
			}
		}
	}))

	return srv, bl
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialBridge(t *testing.T, srv *httptest.Server) *WebSocket {
	t.Helper()
	w := NewWebSocket(WebSocketConfig{
		URL:            wsURL(srv),
		Secret:         "s3cret",
		Device:         "f9:af:3c:e2:d2:f5",
		Characteristic: "6e400002-b5a3-f393-e0a9-e50e24dcca9e",
		AckTimeout:     time.Second,
	}, nil)
	require.NoError(t, w.Dial(context.Background()))
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestWebSocket_DialSendsHello(t *testing.T) {
	srv, bl := testBridge(t)
	defer srv.Close()

	w := dialBridge(t, srv)
	assert.True(t, w.Connected())

	msgs := bl.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, streaming.TypeHello, msgs[0].Type)

	var hello streaming.HelloPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &hello))
	assert.Equal(t, "f9:af:3c:e2:d2:f5", hello.Device)

	bl.mu.Lock()
	assert.Equal(t, "s3cret", bl.secret)
	bl.mu.Unlock()
}

func TestWebSocket_WriteRequest(t *testing.T) {
	srv, bl := testBridge(t)
	defer srv.Close()

	w := dialBridge(t, srv)
	require.NoError(t, w.WriteRequest(context.Background(), []byte{0xbf, 0x0a}))

	msgs := bl.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, streaming.TypeWriteRequest, msgs[1].Type)
	assert.NotZero(t, msgs[1].Seq)
	var p streaming.WritePayload
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &p))
	assert.Equal(t, "bf0a", p.Data)
}

func TestWebSocket_RejectedRequestFallsBack(t *testing.T) {
	srv, bl := testBridge(t)
	defer srv.Close()

	w := dialBridge(t, srv)
	res, err := Send(context.Background(), w, []byte{0xde, 0xad})
	require.NoError(t, err)
	assert.True(t, res.Fallback)

	assert.Eventually(t, func() bool {
		msgs := bl.all()
		return len(msgs) == 3 && msgs[2].Type == streaming.TypeWriteCommand
	}, time.Second, 10*time.Millisecond)
}

func TestWebSocket_LinkLost(t *testing.T) {
	srv, _ := testBridge(t)
	defer srv.Close()

	w := NewWebSocket(WebSocketConfig{URL: wsURL(srv), AckTimeout: 50 * time.Millisecond}, nil)
	require.NoError(t, w.Dial(context.Background()))
	defer w.Close()

	err := w.WriteRequest(context.Background(), []byte{0x0f})
	require.Error(t, err, "status instead of ack times out")

	assert.Eventually(t, func() bool { return !w.Connected() }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, w.WriteRequest(context.Background(), []byte{1}), ErrNotConnected)
	assert.ErrorIs(t, w.WriteCommand(context.Background(), []byte{1}), ErrNotConnected)
}

func TestWebSocket_DialFailure(t *testing.T) {
	w := NewWebSocket(WebSocketConfig{URL: "ws://127.0.0.1:1/bridge"}, nil)
	require.Error(t, w.Dial(context.Background()))
	assert.False(t, w.Connected())
	assert.NoError(t, w.Close())
}

func TestWebSocket_CloseIdempotent(t *testing.T) {
	srv, _ := testBridge(t)
	defer srv.Close()

	w := NewWebSocket(WebSocketConfig{URL: wsURL(srv)}, nil)
	require.NoError(t, w.Dial(context.Background()))
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.False(t, w.Connected())
}

func TestWebSocket_CloseDuringWrites(t *testing.T) {
	srv, bl := testBridge(t)
	defer srv.Close()

	w := NewWebSocket(WebSocketConfig{URL: wsURL(srv), AckTimeout: time.Second}, nil)
	require.NoError(t, w.Dial(context.Background()))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			_ = w.WriteCommand(context.Background(), []byte{0xbf, 0x01})
		}
	}()

	assert.Eventually(t, func() bool { return len(bl.all()) > 5 }, time.Second, time.Millisecond)
	require.NoError(t, w.Close())
	close(stop)
	wg.Wait()

	assert.False(t, w.Connected())
	assert.ErrorIs(t, w.WriteCommand(context.Background(), []byte{1}), ErrNotConnected)
}
