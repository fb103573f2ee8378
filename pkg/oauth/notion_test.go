package oauth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tonyc-ship/latios-oss-sub001/pkg/oauth"
)

func notionConfig(tokenURL string) oauth.NotionConfig {
	return oauth.NotionConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "https://latios.test/api/notion/callback",
		AuthURL:      "https://api.notion.com/v1/oauth/authorize",
		TokenURL:     tokenURL,
	}
}

func TestNewNotionProvider(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		p, err := oauth.NewNotionProvider(notionConfig("http://localhost/token"))
		require.NoError(t, err)
		require.Equal(t, "notion", p.Name())
	})

	t.Run("missing client id", func(t *testing.T) {
		t.Parallel()
		cfg := notionConfig("")
		cfg.ClientID = ""
		_, err := oauth.NewNotionProvider(cfg)
		require.ErrorIs(t, err, oauth.ErrMissingClientID)
		require.False(t, cfg.Enabled())
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Parallel()
		cfg := notionConfig("")
		cfg.ClientSecret = ""
		_, err := oauth.NewNotionProvider(cfg)
		require.ErrorIs(t, err, oauth.ErrMissingClientSecret)
	})

	t.Run("missing redirect", func(t *testing.T) {
		t.Parallel()
		cfg := notionConfig("")
		cfg.RedirectURL = ""
		_, err := oauth.NewNotionProvider(cfg)
		require.ErrorIs(t, err, oauth.ErrMissingRedirectURL)
	})
}

func TestNotionAuthCodeURL(t *testing.T) {
	t.Parallel()

	p, err := oauth.NewNotionProvider(notionConfig("http://localhost/token"))
	require.NoError(t, err)

	u, err := url.Parse(p.AuthCodeURL("st4te"))
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "api.notion.com", u.Host)
	require.Equal(t, "st4te", q.Get("state"))
	require.Equal(t, "user", q.Get("owner"))
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "client", q.Get("client_id"))
}

func TestNotionExchange(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			require.Equal(t, "client", user)
			require.Equal(t, "secret", pass)
			require.NoError(t, r.ParseForm())
			require.Equal(t, "the-code", r.PostForm.Get("code"))

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token":   "secret_abc",
				"token_type":     "bearer",
				"bot_id":         "bot-1",
				"workspace_id":   "ws-1",
				"workspace_name": "Pods",
				"workspace_icon": "🎧",
				"owner": map[string]any{
					"type": "user",
					"user": map[string]any{
						"id":     "user-1",
						"person": map[string]any{"email": "ada@example.com"},
					},
				},
			})
		}))
		t.Cleanup(srv.Close)

		p, err := oauth.NewNotionProvider(notionConfig(srv.URL), oauth.WithHTTPClient(srv.Client()))
		require.NoError(t, err)

		conn, err := p.Exchange(context.Background(), "the-code")
		require.NoError(t, err)
		require.Equal(t, "secret_abc", conn.AccessToken)
		require.Equal(t, "ws-1", conn.WorkspaceID)
		require.Equal(t, "Pods", conn.WorkspaceName)
		require.Equal(t, "bot-1", conn.BotID)
		require.Equal(t, "user-1", conn.OwnerID)
		require.Equal(t, "ada@example.com", conn.OwnerEmail)
	})

	t.Run("empty code", func(t *testing.T) {
		t.Parallel()
		p, err := oauth.NewNotionProvider(notionConfig("http://localhost/token"))
		require.NoError(t, err)
		_, err = p.Exchange(context.Background(), " ")
		require.ErrorIs(t, err, oauth.ErrEmptyCode)
	})

	t.Run("upstream rejects", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		}))
		t.Cleanup(srv.Close)

		p, err := oauth.NewNotionProvider(notionConfig(srv.URL), oauth.WithHTTPClient(srv.Client()))
		require.NoError(t, err)
		_, err = p.Exchange(context.Background(), "bad")
		require.ErrorIs(t, err, oauth.ErrExchangeFailed)
	})

	t.Run("no workspace", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"x","token_type":"bearer"}`))
		}))
		t.Cleanup(srv.Close)

		p, err := oauth.NewNotionProvider(notionConfig(srv.URL), oauth.WithHTTPClient(srv.Client()))
		require.NoError(t, err)
		_, err = p.Exchange(context.Background(), "code")
		require.ErrorIs(t, err, oauth.ErrMissingWorkspace)
	})
}
