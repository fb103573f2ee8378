package middlewares

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
)

// RequestLogger writes one record per request after the response is sent.
// Paths in skip (health probes, metrics scrapes) are not logged.
func RequestLogger(skip ...string) internal.Middleware {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if _, ok := skipped[c.Request().URL.Path]; ok {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			attrs := []any{
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.Duration("duration", time.Since(start)),
			}
			status := http.StatusOK
			if rw, ok := c.Response().(*internal.ResponseWriter); ok {
				if rw.Written() {
					status = rw.Status()
				}
				attrs = append(attrs, slog.Int64("bytes", rw.Size()))
			}
			if he := internal.AsHTTPError(err); he != nil && !c.Written() {
				status = he.Code
			}
			attrs = append(attrs, slog.Int("status", status))
			if loc := c.Locale(); loc != "" {
				attrs = append(attrs, slog.String("locale", loc))
			}

			switch {
			case status >= http.StatusInternalServerError:
				c.LogError("request", attrs...)
			case status >= http.StatusBadRequest:
				c.LogWarn("request", attrs...)
			default:
				c.LogInfo("request", attrs...)
			}
			return err
		}
	}
}
