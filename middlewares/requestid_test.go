package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/middlewares"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	echo := func(c internal.Context) error {
		return c.String(http.StatusOK, c.RequestID())
	}

	t.Run("generates a ulid", func(t *testing.T) {
		t.Parallel()

		w := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), "/", echo, middlewares.RequestID())
		id := w.Header().Get(middlewares.RequestIDHeader)
		assert.Len(t, id, 26)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps upstream id", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Vercel-Id", "iad1::abc-123")
		w := serve(t, req, "/", echo, middlewares.RequestID())
		assert.Equal(t, "iad1::abc-123", w.Header().Get(middlewares.RequestIDHeader))
		assert.Equal(t, "iad1::abc-123", w.Body.String())
	})

	t.Run("header order matters", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Correlation-ID", "second")
		req.Header.Set("X-Request-ID", "first")
		w := serve(t, req, "/", echo, middlewares.RequestID())
		assert.Equal(t, "first", w.Body.String())
	})

	t.Run("oversized upstream id is replaced", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("a", 200))
		w := serve(t, req, "/", echo, middlewares.RequestID(middlewares.WithRequestIDGenerator(func() string { return "fixed" })))
		assert.Equal(t, "fixed", w.Body.String())
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "ignored")
		req.Header.Set("CF-Ray", "ray-1")
		w := serve(t, req, "/", echo, middlewares.RequestID(middlewares.WithRequestIDHeaders("CF-Ray")))
		assert.Equal(t, "ray-1", w.Body.String())
	})

	t.Run("request id lands in error bodies", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-9")
		w := serve(t, req, "/", func(c internal.Context) error {
			return internal.ErrNotFound("episode not found")
		}, middlewares.RequestID())
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "req-9", decodeError(t, w.Body)["request_id"])
	})
}

func TestGetRequestID(t *testing.T) {
	t.Parallel()

	assert.Empty(t, middlewares.GetRequestID(context.Background()))
	ctx := context.WithValue(context.Background(), internal.RequestIDKey{}, "abc")
	assert.Equal(t, "abc", middlewares.GetRequestID(ctx))

	attr, ok := middlewares.RequestIDExtractor()(ctx)
	require.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)
}
