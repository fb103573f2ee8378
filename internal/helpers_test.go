package internal_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
)

func TestQueryDefault(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/?limit=50&bad=x&on=true&id=9000000000&term=go", nil)
	requestVia(t, req, nil, func(c internal.Context) error {
		require.Equal(t, 50, internal.QueryDefault(c, "limit", 20))
		require.Equal(t, 20, internal.QueryDefault(c, "missing", 20))
		require.Equal(t, 20, internal.QueryDefault(c, "bad", 20))
		require.True(t, internal.QueryDefault(c, "on", false))
		require.Equal(t, int64(9000000000), internal.QueryDefault(c, "id", int64(0)))
		require.Equal(t, "go", internal.QueryDefault(c, "term", ""))
		return nil
	})
}

func TestQueryInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  int
	}{
		{"", 20},
		{"limit=5", 5},
		{"limit=0", 1},
		{"limit=-3", 1},
		{"limit=500", 200},
		{"limit=abc", 20},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			requestVia(t, req, nil, func(c internal.Context) error {
				require.Equal(t, tt.want, internal.QueryInt(c, "limit", 20, 1, 200))
				return nil
			})
		})
	}
}

func TestContextValue(t *testing.T) {
	t.Parallel()

	type key struct{}
	requestVia(t, httptest.NewRequest(http.MethodGet, "/", nil), nil, func(c internal.Context) error {
		require.Empty(t, internal.ContextValue[string](c, key{}))
		c.Set(key{}, "v")
		require.Equal(t, "v", internal.ContextValue[string](c, key{}))
		require.Zero(t, internal.ContextValue[int](c, key{}))
		return nil
	})
}
