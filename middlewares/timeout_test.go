package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/middlewares"
)

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("fast handler", func(t *testing.T) {
		t.Parallel()

		w := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), "/", okHandler, middlewares.Timeout(time.Second))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("slow handler gets 503", func(t *testing.T) {
		t.Parallel()

		w := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), "/", func(c internal.Context) error {
			<-c.Done()
			return nil
		}, middlewares.Timeout(20*time.Millisecond))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "request timed out", decodeError(t, w.Body)["message"])
	})

	t.Run("handler sees the deadline", func(t *testing.T) {
		t.Parallel()

		w := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), "/", func(c internal.Context) error {
			_, ok := c.Deadline()
			if !ok {
				return c.NoContent(http.StatusTeapot)
			}
			return c.NoContent(http.StatusNoContent)
		}, middlewares.Timeout(time.Second))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("skipped prefix runs without deadline", func(t *testing.T) {
		t.Parallel()

		w := serve(t, httptest.NewRequest(http.MethodGet, "/api/summarize", nil), "/api/summarize", func(c internal.Context) error {
			if _, ok := c.Deadline(); ok {
				return c.NoContent(http.StatusTeapot)
			}
			return c.NoContent(http.StatusNoContent)
		}, middlewares.Timeout(time.Second, "/api/summarize"))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("timeout error is exposed", func(t *testing.T) {
		t.Parallel()

		var got error
		app := internal.New(
			internal.WithMiddleware(middlewares.Timeout(10*time.Millisecond)),
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				got = err
				return c.NoContent(http.StatusServiceUnavailable)
			}),
			internal.WithHandlers(routes(func(r internal.Router) {
				r.GET("/", func(c internal.Context) error {
					<-c.Done()
					return nil
				})
			})),
		)
		app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		te, ok := middlewares.AsTimeoutError(got)
		require.True(t, ok)
		assert.Equal(t, 10*time.Millisecond, te.Duration)
	})
}
