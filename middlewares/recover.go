package middlewares

import (
	"runtime"

	"github.com/getsentry/sentry-go"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
)

// DefaultStackSize bounds the captured stack trace.
const DefaultStackSize = 4096

// RecoverConfig configures the recover middleware.
type RecoverConfig struct {
	StackSize    int
	DisableStack bool
}

// RecoverOption configures RecoverConfig.
type RecoverOption func(*RecoverConfig)

// WithRecoverStackSize sets the captured stack size in bytes.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *RecoverConfig) {
		if size > 0 {
			cfg.StackSize = size
		}
	}
}

// WithoutStack skips stack capture.
func WithoutStack() RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.DisableStack = true
	}
}

// Recover turns a panic into a 500 whose cause is a *PanicError. The panic
// is logged and, when a Sentry client is configured, reported to Sentry.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := &RecoverConfig{StackSize: DefaultStackSize}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				pe := &PanicError{Value: r}
				if !cfg.DisableStack {
					buf := make([]byte, cfg.StackSize)
					pe.Stack = buf[:runtime.Stack(buf, false)]
				}

				c.LogError("panic recovered", "panic", r, "stack", string(pe.Stack))
				if hub := sentry.CurrentHub(); hub.Client() != nil {
					hub.Clone().Recover(r)
				}

				err = internal.ErrInternal("", internal.WithError(pe))
			}()

			return next(c)
		}
	}
}
