// Package logger builds the service's slog loggers.
//
// Every logger is wrapped in a handler that pulls request-scoped values
// (request id, negotiated locale, user id) out of the context on each call,
// so handlers only need to pass ctx:
//
//	log := logger.New(cfg,
//		logger.FromContextKey(internal.RequestIDKey{}, "request_id"),
//		logger.FromContextKey(internal.LocaleKey{}, "locale"),
//	)
//	log.InfoContext(ctx, "search recorded", slog.Int("results", n))
//
// When Config.Sentry.DSN is set, records at or above warn level are also
// forwarded to Sentry; errors become Sentry issues.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls the stdout handler and the optional Sentry fan-out.
type Config struct {
	Level  string       `env:"LEVEL" envDefault:"info"`
	Format string       `env:"FORMAT" envDefault:"json"`
	Sentry SentryConfig `envPrefix:"SENTRY_"`

	// Output defaults to os.Stdout.
	Output io.Writer
}

// New creates a logger from cfg with optional context extractors.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	base := newStdoutHandler(out, cfg.Format, ParseLevel(cfg.Level))
	handler := base
	if sh, ok := newSentryHandler(cfg.Sentry, base); ok {
		handler = newMultiHandler(base, sh)
	}

	return slog.New(NewContextHandler(handler, extractors...))
}

// NewNope creates a logger that discards all output.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to slog.Level. Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newStdoutHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}
