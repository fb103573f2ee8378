package middlewares_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/middlewares"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/i18n"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/locale"
)

func TestLocale(t *testing.T) {
	t.Parallel()

	cfg := locale.MustNew("en", "en", "zh")

	tests := []struct {
		name       string
		path       string
		header     string
		wantLocale string // "" means the request is exempt
	}{
		{name: "regional english", path: "/", header: "en-US,en;q=0.9", wantLocale: "en"},
		{name: "unsupported language", path: "/", header: "fr-FR,fr;q=0.9", wantLocale: "en"},
		{name: "no header", path: "/", wantLocale: "en"},
		{name: "simplified chinese", path: "/", header: "zh-CN,zh;q=0.9,en;q=0.8", wantLocale: "zh"},
		{name: "first entry wins", path: "/", header: "fr,zh;q=0.9", wantLocale: "en"},
		{name: "page route", path: "/podcasts", header: "zh", wantLocale: "zh"},
		{name: "api route", path: "/api/search", header: "zh-CN"},
		{name: "next assets", path: "/_next/chunk", header: "zh-CN"},
		{name: "static assets", path: "/static/app", header: "zh-CN"},
		{name: "dotted path", path: "/favicon.ico", header: "zh-CN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen string
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Accept-Language", tt.header)
			}
			w := serve(t, req, tt.path, func(c internal.Context) error {
				seen = c.Locale()
				return c.NoContent(http.StatusNoContent)
			}, middlewares.Locale(cfg))

			require.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, tt.wantLocale, seen)
			assert.Equal(t, tt.wantLocale, w.Header().Get(middlewares.LocaleHeader))
			if tt.wantLocale != "" {
				assert.Contains(t, w.Header().Values("Vary"), "Accept-Language")
			} else {
				assert.NotContains(t, w.Header().Values("Vary"), "Accept-Language")
			}
		})
	}
}

func TestLocaleTranslator(t *testing.T) {
	t.Parallel()

	cat, err := i18n.New(
		i18n.WithDefaultLocale("en"),
		i18n.WithMessages("en", "common", map[string]any{"search": "Search"}),
		i18n.WithMessages("zh", "common", map[string]any{"search": "搜索"}),
	)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "zh-TW")
	w := serve(t, req, "/", func(c internal.Context) error {
		require.NotNil(t, middlewares.GetTranslator(c))
		assert.Equal(t, "zh", middlewares.GetLocale(c))
		return c.String(http.StatusOK, c.T("search"))
	}, middlewares.Locale(locale.MustNew("en", "en", "zh"), middlewares.WithCatalog(cat)))

	assert.Equal(t, "搜索", w.Body.String())
}

func TestLocaleCustomOptions(t *testing.T) {
	t.Parallel()

	mw := middlewares.Locale(locale.MustNew("zh", "en", "zh"),
		middlewares.WithExclusions(locale.Exclusions{locale.HasPrefix("/embed")}),
		middlewares.WithLocaleHeader("Content-Language"),
	)

	t.Run("dots are no longer exempt", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/episode.v2", nil)
		w := serve(t, req, "/episode.v2", okHandler, mw)
		assert.Equal(t, "zh", w.Header().Get("Content-Language"))
		assert.Empty(t, w.Header().Get(middlewares.LocaleHeader))
	})

	t.Run("custom prefix is exempt", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/embed/player", nil)
		w := serve(t, req, "/embed/player", okHandler, mw)
		assert.Empty(t, w.Header().Get("Content-Language"))
	})
}

func TestLocaleExtractor(t *testing.T) {
	t.Parallel()

	ext := middlewares.LocaleExtractor()

	_, ok := ext(context.Background())
	assert.False(t, ok)

	attr, ok := ext(context.WithValue(context.Background(), internal.LocaleKey{}, "zh"))
	require.True(t, ok)
	assert.Equal(t, slog.String("locale", "zh"), attr)
}
