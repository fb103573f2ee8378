package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
)

// DefaultTimeout applies when Timeout gets a non-positive duration.
const DefaultTimeout = 30 * time.Second

// Timeout puts a deadline on the request context. A handler still running
// at the deadline gets a 503 with a *TimeoutError cause; the handler
// goroutine is not killed, so long work must watch ctx.Done().
//
// Requests under one of the skip prefixes run without the deadline; they
// are streaming endpoints that bound their own work.
func Timeout(timeout time.Duration, skip ...string) internal.Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			for _, prefix := range skip {
				if strings.HasPrefix(c.Request().URL.Path, prefix) {
					return next(c)
				}
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			*c.Request() = *c.Request().WithContext(ctx)

			done := make(chan error, 1)
			go func() {
				done <- next(c)
			}()

			var err error
			select {
			case err = <-done:
			case <-ctx.Done():
			}

			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Written() {
				c.LogWarn("request timeout", "timeout", timeout.String())
				return internal.NewHTTPError(http.StatusServiceUnavailable, "request timed out",
					internal.WithError(&TimeoutError{Duration: timeout}))
			}
			return err
		}
	}
}
