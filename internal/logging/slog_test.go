package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func TestSetup_Destination(t *testing.T) {
	t.Run("file only", func(t *testing.T) {
		stdout := captureStdout(t)

		var file bytes.Buffer
		m := NewSlogManager()
		m.Setup(&file, "info", nil)
		m.Logger().Info("order accepted", "unit", 4)

		assert.Empty(t, stdout(), "stdout stays quiet when a file is given")
		assert.Contains(t, file.String(), "order accepted")
		assert.Contains(t, file.String(), "unit=4")
	})

	t.Run("stdout without file", func(t *testing.T) {
		stdout := captureStdout(t)

		m := NewSlogManager()
		m.Setup(nil, "info", nil)
		m.Logger().Info("relay listening")

		assert.Contains(t, stdout(), "relay listening")
	})

	t.Run("otel provider alongside file", func(t *testing.T) {
		var file bytes.Buffer
		m := NewSlogManager()
		m.Setup(&file, "info", sdklog.NewLoggerProvider())
		m.Logger().Info("snapshot sent")

		assert.Contains(t, file.String(), "snapshot sent")
		assert.NoError(t, m.Flush(context.Background()))
	})
}

func TestSetup_Levels(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()

	m.Setup(&buf, "info", nil)
	m.Logger().Debug("unit stepped")
	m.Logger().Info("engagement resolved")
	assert.NotContains(t, buf.String(), "unit stepped")
	assert.Contains(t, buf.String(), "engagement resolved")

	buf.Reset()
	m.Setup(&buf, "debug", nil)
	m.Logger().Debug("unit stepped")
	assert.Contains(t, buf.String(), "unit stepped")
}

func TestSetup_ReplacesSink(t *testing.T) {
	var first, second bytes.Buffer
	m := NewSlogManager()

	m.Setup(&first, "info", nil)
	m.Setup(&second, "info", nil)
	m.Logger().Info("game over")

	assert.NotContains(t, first.String(), "game over")
	assert.Contains(t, second.String(), "game over")
}

func TestLogger_BeforeSetup(t *testing.T) {
	m := NewSlogManager()
	assert.Equal(t, slog.Default(), m.Logger())
	assert.NoError(t, m.Flush(context.Background()))
}

func TestSetup_GameClockAttributes(t *testing.T) {
	var buf bytes.Buffer
	minute := 360.0
	m := NewSlogManager().WithContext(func() []slog.Attr {
		return []slog.Attr{slog.String("side", "red"), slog.Float64("gameMinute", minute)}
	})
	m.Setup(&buf, "info", nil)

	m.Component("engine").Info("tick")
	assert.Contains(t, buf.String(), "component=engine")
	assert.Contains(t, buf.String(), "side=red")
	assert.Contains(t, buf.String(), "gameMinute=360")

	minute = 385
	m.Logger().Info("combat interval")
	assert.Contains(t, buf.String(), "gameMinute=385")
}

func TestSetup_NilContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager().WithContext(func() []slog.Attr { return nil })
	m.Setup(&buf, "info", nil)

	m.Logger().Info("waiting for side")
	assert.Contains(t, buf.String(), "waiting for side")
	assert.NotContains(t, buf.String(), "gameMinute")
}

func TestParseLevel(t *testing.T) {
	for input, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"Error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	} {
		assert.Equal(t, want, parseLevel(input), input)
	}
}

// failingHandler accepts every record and fails to write it
type failingHandler struct {
	slog.Handler
}

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("sink closed")
}

func TestMultiHandler(t *testing.T) {
	var info, debug bytes.Buffer
	infoH := slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugH := slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug})

	multi := NewMultiHandler(nil, infoH, debugH)
	require.Len(t, multi.handlers, 2, "nil sinks are dropped")
	assert.True(t, multi.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, NewMultiHandler(infoH).Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelInfo))

	logger := slog.New(multi.WithAttrs([]slog.Attr{slog.String("component", "peer")}).WithGroup("msg"))
	logger.Debug("frame", "type", "STATE_SYNC")
	logger.Info("frame", "type", "MOVE_ORDER")

	assert.NotContains(t, info.String(), "STATE_SYNC")
	assert.Contains(t, info.String(), "component=peer msg.type=MOVE_ORDER")
	assert.Contains(t, debug.String(), "msg.type=STATE_SYNC")

	assert.Same(t, multi, multi.WithGroup(""))
}

func TestMultiHandler_FailingSinkDoesNotStopOthers(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiHandler(failingHandler{}, slog.NewTextHandler(&buf, nil))

	err := multi.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "chat", 0))
	assert.EqualError(t, err, "sink closed")
	assert.Contains(t, buf.String(), "chat")
}

// captureStdout points the stdout sink at a pipe and returns a function that
// restores it and yields what was written.
func captureStdout(t *testing.T) func() string {
	t.Helper()

	r, w, err := osPipe()
	require.NoError(t, err)

	orig := osStdout
	osStdout = w

	return func() string {
		w.Close()
		osStdout = orig
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()
		return buf.String()
	}
}
