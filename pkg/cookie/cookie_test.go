package cookie

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func roundTrip(t *testing.T, set func(w http.ResponseWriter)) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	set(rec)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Secret: "short"})
	require.ErrorIs(t, err, ErrBadSecret)

	m, err := New(Config{Secret: secret})
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestSigned(t *testing.T) {
	t.Parallel()

	m, err := New(Config{Secret: secret, Secure: true})
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		req := roundTrip(t, func(w http.ResponseWriter) { m.SetSigned(w, "state", "abc.def", time.Minute) })
		v, err := m.GetSigned(req, "state")
		require.NoError(t, err)
		require.Equal(t, "abc.def", v)
	})

	t.Run("attributes", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		m.SetSigned(rec, "state", "x", time.Minute)
		c := rec.Result().Cookies()[0]
		require.True(t, c.HttpOnly)
		require.True(t, c.Secure)
		require.Equal(t, http.SameSiteLaxMode, c.SameSite)
		require.Equal(t, 60, c.MaxAge)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		_, err := m.GetSigned(httptest.NewRequest(http.MethodGet, "/", nil), "state")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("tampered", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		m.SetSigned(rec, "state", "x", time.Minute)
		c := rec.Result().Cookies()[0]
		c.Value = "eQ" + c.Value[strings.Index(c.Value, "."):]
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(c)
		_, err := m.GetSigned(req, "state")
		require.ErrorIs(t, err, ErrBadSig)
	})

	t.Run("renamed", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		m.SetSigned(rec, "a", "x", time.Minute)
		c := rec.Result().Cookies()[0]
		c.Name = "b"
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(c)
		_, err := m.GetSigned(req, "b")
		require.ErrorIs(t, err, ErrBadSig)
	})

	t.Run("other secret", func(t *testing.T) {
		t.Parallel()
		other, err := New(Config{Secret: strings.Repeat("z", 32)})
		require.NoError(t, err)
		req := roundTrip(t, func(w http.ResponseWriter) { other.SetSigned(w, "state", "x", time.Minute) })
		_, err = m.GetSigned(req, "state")
		require.ErrorIs(t, err, ErrBadSig)
	})
}

func TestSignedExpired(t *testing.T) {
	t.Parallel()

	m, err := New(Config{Secret: secret})
	require.NoError(t, err)

	now := time.Now()
	m.now = func() time.Time { return now }
	req := roundTrip(t, func(w http.ResponseWriter) { m.SetSigned(w, "state", "x", time.Minute) })

	m.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = m.GetSigned(req, "state")
	require.ErrorIs(t, err, ErrExpired)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	m, err := New(Config{Secret: secret})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Delete(rec, "state")
	c := rec.Result().Cookies()[0]
	require.Equal(t, "state", c.Name)
	require.Less(t, c.MaxAge, 0)
}
