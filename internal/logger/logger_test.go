package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, cfg LogConfig) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cfg.Output = &buf
	cfg.Format = "json"
	require.NoError(t, InitWithConfig(cfg))
	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		out = append(out, m)
	}
	return out
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, LogConfig{Level: "WARN"})
	ctx := context.Background()

	Debug(ctx, "debug")
	Info(ctx, "info")
	Warn(ctx, "warn", "symbol", "AAPL")
	ErrorWithErr(ctx, "boom", errors.New("disk full"))

	got := lines(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "warn", got[0]["msg"])
	assert.Equal(t, "AAPL", got[0]["symbol"])
	assert.Equal(t, "disk full", got[1]["error"])
	assert.False(t, IsDebugEnabled())
}

func TestDetailedLoggingAddsSource(t *testing.T) {
	buf := capture(t, LogConfig{Level: "ERROR", DetailedLogging: true})

	Debug(context.Background(), "visible")

	got := lines(t, buf)
	require.Len(t, got, 1)
	src, ok := got[0]["source"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, src["file"], "logger_test.go")
	assert.True(t, IsDebugEnabled())
}

func TestDomainHelpers(t *testing.T) {
	buf := capture(t, LogConfig{Level: "INFO"})
	ctx := context.Background()

	Signal(ctx, "GOOGL", "SELL", 0.12, "TREND_FOLLOWING")
	Order(ctx, "o-1", "AAPL", "BUY", 10, "PENDING")
	Tick(ctx, "AAPL", 175.5, 0.26)

	got := lines(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "SIGNAL", got[0]["type"])
	assert.Equal(t, "SELL", got[0]["signal"])
	assert.Equal(t, "ORDER", got[1]["type"])
	assert.Equal(t, "o-1", got[1]["order_id"])
	assert.Equal(t, float64(10), got[1]["quantity"])
}

func TestOperationTimerFailure(t *testing.T) {
	buf := capture(t, LogConfig{Level: "INFO"})

	op := StartOperation(context.Background(), "simulator.Tick", "symbols", 6)
	op.EndWithError(errors.New("store closed"))

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "Operation failed", got[0]["msg"])
	assert.Equal(t, "store closed", got[0]["error"])
	assert.Equal(t, float64(6), got[0]["symbols"])
}
