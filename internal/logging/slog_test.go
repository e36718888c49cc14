package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"Info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestSetup_Levels(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
	}{
		{"debug", true},
		{"info", false},
		{"warn", false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			m := NewSlogManager()
			m.Setup(&buf, tt.level, nil)

			m.Logger().Debug("ray cast")
			m.Logger().Error("send failed")

			assert.Equal(t, tt.debugSeen, strings.Contains(buf.String(), "ray cast"))
			assert.Contains(t, buf.String(), "send failed")
		})
	}
}

func TestSetup_StdoutWithoutFile(t *testing.T) {
	r, w, err := osPipe()
	require.NoError(t, err)
	orig := osStdout
	osStdout = w
	t.Cleanup(func() { osStdout = orig })

	m := NewSlogManager()
	m.Setup(nil, "info", nil)
	m.Logger().Info("pipeline starting")
	require.NoError(t, w.Close())

	var out bytes.Buffer
	_, _ = out.ReadFrom(r)
	assert.Contains(t, out.String(), "pipeline starting")
}

func TestSetup_ReplacesLogger(t *testing.T) {
	var first, second bytes.Buffer
	m := NewSlogManager()

	m.Setup(&first, "info", nil)
	m.Logger().Info("run one")
	m.Setup(&second, "info", nil)
	m.Logger().Info("run two")

	assert.NotContains(t, first.String(), "run two")
	assert.Contains(t, second.String(), "run two")
}

func TestLogger_DefaultBeforeSetup(t *testing.T) {
	assert.Equal(t, slog.Default(), NewSlogManager().Logger())
}

func TestSetup_RunContext(t *testing.T) {
	var buf bytes.Buffer
	var attrs []slog.Attr

	m := NewSlogManager()
	m.Context = func() []slog.Attr { return attrs }
	m.Setup(&buf, "info", nil)

	m.Logger().Info("idle")
	assert.NotContains(t, buf.String(), "run=")

	attrs = []slog.Attr{slog.String("run", "r-1"), slog.String("mode", "vision")}
	m.Logger().Info("tick")
	assert.Contains(t, buf.String(), "run=r-1")
	assert.Contains(t, buf.String(), "mode=vision")
}

func TestSetup_ExtraHandlers(t *testing.T) {
	var file, extra bytes.Buffer
	m := NewSlogManager()
	m.Setup(&file, "info", nil, slog.NewJSONHandler(&extra, nil))

	m.Logger().Info("shipped")
	assert.Contains(t, file.String(), "shipped")
	assert.Contains(t, extra.String(), `"msg":"shipped"`)
}

func TestSetup_WithOTelProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "info", provider)

	m.Logger().Info("bridged")
	assert.Contains(t, buf.String(), "bridged")
	assert.NoError(t, m.Flush(context.Background()))
}

func TestFlush_NoProvider(t *testing.T) {
	assert.NoError(t, NewSlogManager().Flush(context.Background()))
}

func TestHandlerOptions_UTCTime(t *testing.T) {
	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, HandlerOptions("info"))).Info("stamp")
	assert.Regexp(t, `time=\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z`, buf.String())
}

func TestNewGELFHandler(t *testing.T) {
	h, closer, err := NewGELFHandler("127.0.0.1:12201", "info")
	require.NoError(t, err)
	defer closer.Close()

	slog.New(h).Info("to graylog")
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("graylog down")
}

func TestMultiHandler(t *testing.T) {
	var info, debug bytes.Buffer
	infoH := slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugH := slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug})

	m := NewMultiHandler(nil, infoH, nil, debugH)
	require.Len(t, m.handlers, 2)
	assert.True(t, m.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, NewMultiHandler(infoH).Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelError))

	logger := slog.New(m)
	logger.Debug("only debug")
	logger.With("component", "sender").WithGroup("wire").Info("both", "len", 30)

	assert.NotContains(t, info.String(), "only debug")
	assert.Contains(t, debug.String(), "only debug")
	assert.Contains(t, info.String(), "component=sender wire.len=30")
	assert.Contains(t, debug.String(), "component=sender wire.len=30")
	assert.Same(t, m, m.WithGroup(""))
}

func TestMultiHandler_JoinsFailures(t *testing.T) {
	var buf bytes.Buffer
	spy := slog.NewTextHandler(&buf, nil)
	m := NewMultiHandler(failingHandler{}, spy)

	var r slog.Record
	r.Level = slog.LevelInfo
	r.Message = "still delivered"
	err := m.Handle(context.Background(), r)

	assert.ErrorContains(t, err, "graylog down")
	assert.Contains(t, buf.String(), "still delivered")
}

func TestContextHandler_WithGroupEmpty(t *testing.T) {
	h := NewContextHandler(slog.NewTextHandler(&bytes.Buffer{}, nil), nil)
	assert.Same(t, h, h.WithGroup(""))
}
