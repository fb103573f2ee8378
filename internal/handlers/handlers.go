// Package handlers declares the HTTP routes of the web service. Every
// handler receives its dependencies through its constructor and declares
// its routes in Routes.
package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/internal/store"
)

// Guards are the authentication middlewares handlers attach to their
// route groups. Required rejects anonymous requests; Optional lets them
// through without a user.
type Guards struct {
	Required internal.Middleware
	Optional internal.Middleware
}

func (g Guards) required() internal.Middleware {
	if g.Required == nil {
		return passthrough
	}
	return g.Required
}

func (g Guards) optional() internal.Middleware {
	if g.Optional == nil {
		return passthrough
	}
	return g.Optional
}

func passthrough(next internal.HandlerFunc) internal.HandlerFunc { return next }

// storeError maps persistence errors to HTTP errors.
func storeError(err error, what string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return internal.ErrNotFound(what+" not found", internal.WithError(err), internal.WithErrorCode("not_found"))
	case errors.Is(err, store.ErrConflict):
		return internal.ErrConflict(what+" already exists", internal.WithError(err), internal.WithErrorCode("conflict"))
	case errors.Is(err, store.ErrNotOwner):
		return internal.ErrForbidden(what+" belongs to another user", internal.WithError(err), internal.WithErrorCode("not_owner"))
	default:
		return err
	}
}

// language reads a language code, accepting "" as English.
func language(raw string) (store.Language, error) {
	if raw == "" {
		return store.LanguageEnglish, nil
	}
	lang, ok := store.ParseLanguage(strings.ToLower(raw))
	if !ok {
		return 0, internal.ErrBadRequest("unsupported language", internal.WithErrorCode("invalid_language"),
			internal.WithDetail("language must be en or zh"))
	}
	return lang, nil
}

var pubDateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.DateOnly,
	"Streamed live on Jan 2, 2006",
	"Streamed live on January 2, 2006",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	time.DateTime,
	"2006/01/02",
}

// ParsePubDate normalises the publication dates podcast clients send.
// Dates without a zone are taken as UTC; unparseable input yields nil.
func ParsePubDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

var (
	_ HistoryStore    = (*store.Store)(nil)
	_ KeyStore        = (*store.Store)(nil)
	_ NotionStore     = (*store.Store)(nil)
	_ TranscribeStore = (*store.Store)(nil)
	_ SummaryStore    = (*store.Store)(nil)
)
