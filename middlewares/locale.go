package middlewares

import (
	"context"
	"log/slog"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/i18n"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/locale"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/logger"
)

// LocaleHeader carries the negotiated locale on the response.
const LocaleHeader = "X-Locale"

// LocaleConfig configures the Locale middleware.
type LocaleConfig struct {
	Catalog    *i18n.Catalog
	Exclusions locale.Exclusions
	Namespace  string
	Header     string
}

// LocaleOption configures LocaleConfig.
type LocaleOption func(*LocaleConfig)

// WithCatalog binds a translator for the negotiated locale on every
// negotiated request.
func WithCatalog(cat *i18n.Catalog) LocaleOption {
	return func(cfg *LocaleConfig) {
		cfg.Catalog = cat
	}
}

// WithNamespace sets the translator's namespace. Default "common".
func WithNamespace(ns string) LocaleOption {
	return func(cfg *LocaleConfig) {
		if ns != "" {
			cfg.Namespace = ns
		}
	}
}

// WithExclusions replaces locale.DefaultExclusions.
func WithExclusions(ex locale.Exclusions) LocaleOption {
	return func(cfg *LocaleConfig) {
		cfg.Exclusions = ex
	}
}

// WithLocaleHeader renames the response header. Default X-Locale.
func WithLocaleHeader(name string) LocaleOption {
	return func(cfg *LocaleConfig) {
		if name != "" {
			cfg.Header = name
		}
	}
}

// Locale negotiates the request locale from Accept-Language.
//
// Exempt paths (API routes, assets, anything with a dot) pass through
// untouched. Otherwise the resolved locale is stored under
// internal.LocaleKey and echoed in the X-Locale response header, with
// Vary: Accept-Language so shared caches key on it. When a catalog is
// configured a translator is stored under internal.TranslatorKey.
func Locale(cfg locale.Config, opts ...LocaleOption) internal.Middleware {
	lc := &LocaleConfig{
		Exclusions: locale.DefaultExclusions(),
		Namespace:  "common",
		Header:     LocaleHeader,
	}
	for _, opt := range opts {
		opt(lc)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if lc.Exclusions.Exempt(c.Request().URL.Path) {
				return next(c)
			}

			resolved := cfg.Resolve(c.Request().Header)
			c.Set(internal.LocaleKey{}, resolved)
			c.SetHeader(lc.Header, resolved)
			c.Response().Header().Add("Vary", "Accept-Language")
			if lc.Catalog != nil {
				c.Set(internal.TranslatorKey{}, lc.Catalog.Translator(resolved, lc.Namespace))
			}

			return next(c)
		}
	}
}

// GetLocale returns the negotiated locale stored on ctx, or "".
func GetLocale(ctx context.Context) string {
	v, _ := ctx.Value(internal.LocaleKey{}).(string)
	return v
}

// GetTranslator returns the translator stored on ctx, or nil.
func GetTranslator(ctx context.Context) *i18n.Translator {
	v, _ := ctx.Value(internal.TranslatorKey{}).(*i18n.Translator)
	return v
}

// LocaleExtractor adds "locale" to log records of negotiated requests.
func LocaleExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v := GetLocale(ctx); v != "" {
			return slog.String("locale", v), true
		}
		return slog.Attr{}, false
	}
}
