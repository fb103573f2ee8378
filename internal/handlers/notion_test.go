package handlers_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/internal/handlers"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/cookie"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/oauth"
)

type fakeProvider struct{}

func (fakeProvider) Name() string { return "notion" }

func (fakeProvider) AuthCodeURL(state string) string {
	return "https://notion.test/authorize?state=" + url.QueryEscape(state)
}

func (fakeProvider) Exchange(_ context.Context, code string) (*oauth.Connection, error) {
	if code == "" {
		return nil, oauth.ErrEmptyCode
	}
	return &oauth.Connection{AccessToken: "secret_tok", WorkspaceID: "ws1", WorkspaceName: "Team", BotID: "bot"}, nil
}

func notionApp(t *testing.T, st *memStore) *internal.App {
	t.Helper()
	cookies, err := cookie.New(cookie.Config{Secret: strings.Repeat("s", 32)})
	require.NoError(t, err)
	return internal.New(
		internal.WithCookies(cookies),
		internal.WithHandlers(handlers.NewNotion(fakeProvider{}, st, guards, "/settings")),
	)
}

func authorize(t *testing.T, app http.Handler) (state string, cookies []*http.Cookie) {
	t.Helper()
	w := do(t, app, request{method: http.MethodGet, path: "/api/notion/authorize", user: userA,
		header: http.Header{"Accept": {"application/json"}}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[struct {
		URL string `json:"url"`
	}](t, w)
	u, err := url.Parse(out.URL)
	require.NoError(t, err)
	return u.Query().Get("state"), w.Result().Cookies()
}

func withCookies(cs []*http.Cookie) http.Header {
	h := http.Header{}
	for _, c := range cs {
		h.Add("Cookie", c.Name+"="+c.Value)
	}
	return h
}

func TestNotionFlow(t *testing.T) {
	t.Parallel()

	t.Run("connect and disconnect", func(t *testing.T) {
		t.Parallel()
		st := newMemStore()
		app := notionApp(t, st)

		state, cookies := authorize(t, app)
		require.NotEmpty(t, state)

		w := do(t, app, request{method: http.MethodGet, path: "/api/notion/callback?code=abc&state=" + state, header: withCookies(cookies)})
		require.Equal(t, http.StatusFound, w.Code, w.Body.String())
		assert.Equal(t, "/settings?notion=connected", w.Header().Get("Location"))
		require.Contains(t, st.notion, userA)
		assert.Equal(t, "secret_tok", st.notion[userA].AccessToken)

		w = do(t, app, request{method: http.MethodGet, path: "/api/notion/status", user: userA})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"connected":true`)
		assert.NotContains(t, w.Body.String(), "secret_tok")

		w = do(t, app, request{method: http.MethodDelete, path: "/api/notion/token", user: userA})
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = do(t, app, request{method: http.MethodGet, path: "/api/notion/status", user: userA})
		assert.JSONEq(t, `{"connected":false}`, w.Body.String())

		w = do(t, app, request{method: http.MethodDelete, path: "/api/notion/token", user: userA})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("browser is redirected to consent", func(t *testing.T) {
		t.Parallel()
		w := do(t, notionApp(t, newMemStore()), request{method: http.MethodGet, path: "/api/notion/authorize", user: userA})
		require.Equal(t, http.StatusFound, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "https://notion.test/authorize"))
	})

	t.Run("state mismatch", func(t *testing.T) {
		t.Parallel()
		st := newMemStore()
		app := notionApp(t, st)
		_, cookies := authorize(t, app)

		w := do(t, app, request{method: http.MethodGet, path: "/api/notion/callback?code=abc&state=forged", header: withCookies(cookies)})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_state", errorCode(t, w))
		assert.Empty(t, st.notion)
	})

	t.Run("missing cookie", func(t *testing.T) {
		t.Parallel()
		w := do(t, notionApp(t, newMemStore()), request{method: http.MethodGet, path: "/api/notion/callback?code=abc&state=x"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_state", errorCode(t, w))
	})

	t.Run("user declined", func(t *testing.T) {
		t.Parallel()
		app := notionApp(t, newMemStore())
		state, cookies := authorize(t, app)
		w := do(t, app, request{method: http.MethodGet, path: "/api/notion/callback?error=access_denied&state=" + state, header: withCookies(cookies)})
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/settings?notion=denied", w.Header().Get("Location"))
	})

	t.Run("missing code", func(t *testing.T) {
		t.Parallel()
		app := notionApp(t, newMemStore())
		state, cookies := authorize(t, app)
		w := do(t, app, request{method: http.MethodGet, path: "/api/notion/callback?state=" + state, header: withCookies(cookies)})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "missing_code", errorCode(t, w))
	})

	t.Run("authorize requires a user", func(t *testing.T) {
		t.Parallel()
		w := do(t, notionApp(t, newMemStore()), request{method: http.MethodGet, path: "/api/notion/authorize"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
