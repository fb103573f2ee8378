package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tonyc-ship/latios-oss-sub001/pkg/logger"
)

type ctxKey struct{}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("injects context values", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf}, logger.FromContextKey(ctxKey{}, "request_id"))

		ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
		log.InfoContext(ctx, "hello", slog.Int("n", 1))

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		require.Equal(t, "req-1", rec["request_id"])
		require.Equal(t, "hello", rec["msg"])
	})

	t.Run("skips empty values", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf}, logger.FromContextKey(ctxKey{}, "request_id"))

		log.InfoContext(context.WithValue(context.Background(), ctxKey{}, ""), "hello")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		require.NotContains(t, rec, "request_id")
	})

	t.Run("respects level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf, Level: "warn"})
		log.Info("dropped")
		require.Zero(t, buf.Len())

		log.Warn("kept")
		require.Contains(t, buf.String(), "kept")
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf, Format: "text"})
		log.Info("plain")
		require.Contains(t, buf.String(), "msg=plain")
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		require.Equal(t, want, logger.ParseLevel(in), in)
	}
}

func TestNewNope(t *testing.T) {
	t.Parallel()
	require.NotPanics(t, func() { logger.NewNope().Error("nothing") })
}
