package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseWriter(t *testing.T) {
	t.Parallel()

	t.Run("status captured once", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		rw := NewResponseWriter(rec)

		require.Equal(t, http.StatusOK, rw.Status())
		require.False(t, rw.Written())

		rw.WriteHeader(http.StatusNotFound)
		rw.WriteHeader(http.StatusOK)

		require.Equal(t, http.StatusNotFound, rw.Status())
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.True(t, rw.Written())
	})

	t.Run("write counts bytes", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		rw := NewResponseWriter(rec)

		n, err := rw.Write([]byte("hello"))
		require.NoError(t, err)
		require.Equal(t, 5, n)
		_, _ = rw.Write([]byte(" world"))

		require.Equal(t, int64(11), rw.Size())
		require.Equal(t, http.StatusOK, rw.Status())
		require.Equal(t, "hello world", rec.Body.String())
	})

	t.Run("hooks run once before header", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		rw := NewResponseWriter(rec)

		calls := 0
		rw.OnBeforeWrite(func() {
			calls++
			rw.Header().Set("X-Hook", "yes")
		})

		_, _ = rw.Write([]byte("a"))
		_, _ = rw.Write([]byte("b"))

		require.Equal(t, 1, calls)
		require.Equal(t, "yes", rec.Header().Get("X-Hook"))
	})

	t.Run("rewrap returns same writer", func(t *testing.T) {
		t.Parallel()
		rw := NewResponseWriter(httptest.NewRecorder())
		require.Same(t, rw, NewResponseWriter(rw))
	})

	t.Run("flush and unwrap", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		rw := NewResponseWriter(rec)

		rw.Flush()
		require.True(t, rec.Flushed)
		require.True(t, rw.Written())
		require.Equal(t, rec, rw.Unwrap())
	})

	t.Run("hijack unsupported", func(t *testing.T) {
		t.Parallel()
		rw := NewResponseWriter(httptest.NewRecorder())
		_, _, err := rw.Hijack()
		require.Error(t, err)
	})
}
