package logger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig enables Sentry reporting when DSN is non-empty.
type SentryConfig struct {
	DSN         string `env:"DSN"`
	Environment string `env:"ENVIRONMENT" envDefault:"production"`
	Release     string `env:"RELEASE"`
	// ErrorsOnly stops warn records from being shipped as Sentry logs.
	ErrorsOnly bool `env:"ERRORS_ONLY"`
}

// newSentryHandler initialises the Sentry SDK and returns a handler for it.
// Init failures are reported through fallback and disable Sentry.
func newSentryHandler(cfg SentryConfig, fallback slog.Handler) (slog.Handler, bool) {
	if cfg.DSN == "" {
		return nil, false
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		EnableLogs:  true,
	}); err != nil {
		slog.New(fallback).Error("sentry disabled", slog.String("error", err.Error()))
		return nil, false
	}

	logLevels := []slog.Level{slog.LevelWarn, slog.LevelError}
	if cfg.ErrorsOnly {
		logLevels = []slog.Level{slog.LevelError}
	}

	return sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevels,
	}.NewSentryHandler(context.Background()), true
}

// multiHandler fans a record out to every enabled handler.
type multiHandler struct {
	handlers []slog.Handler
}

func newMultiHandler(handlers ...slog.Handler) slog.Handler {
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, rec slog.Record) error {
	var errs []error
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, rec.Level) {
			errs = append(errs, hh.Handle(ctx, rec.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		out[i] = hh.WithAttrs(attrs)
	}
	return newMultiHandler(out...)
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		out[i] = hh.WithGroup(name)
	}
	return newMultiHandler(out...)
}
