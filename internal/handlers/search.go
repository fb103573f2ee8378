package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/internal/store"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/itunes"
)

const (
	historyDefaultLimit = 20
	historyMaxLimit     = 100
	episodesDefault     = 50
)

// HistoryStore is the persistence used by SearchHandler.
type HistoryStore interface {
	AddSearch(ctx context.Context, e *store.SearchEntry) error
	ListSearches(ctx context.Context, userID string, limit int) ([]store.SearchEntry, error)
	DeleteSearches(ctx context.Context, userID string) (int64, error)
}

// SearchHandler serves podcast search, episode listings and the search
// history of signed-in users.
type SearchHandler struct {
	itunes  itunes.Searcher
	history HistoryStore
	guards  Guards
}

// NewSearch creates a SearchHandler.
func NewSearch(s itunes.Searcher, history HistoryStore, guards Guards) *SearchHandler {
	return &SearchHandler{itunes: s, history: history, guards: guards}
}

// Routes implements internal.Handler.
func (h *SearchHandler) Routes(r internal.Router) {
	r.Group(func(r internal.Router) {
		r.Use(h.guards.optional())
		r.GET("/api/search", h.search)
		r.GET("/api/podcasts/{id}/episodes", h.episodes)
	})
	r.Group(func(r internal.Router) {
		r.Use(h.guards.required())
		r.GET("/api/history", h.listHistory)
		r.DELETE("/api/history", h.clearHistory)
	})
}

type searchResponse struct {
	Term    string          `json:"term"`
	Count   int             `json:"count"`
	Results []itunes.Result `json:"results"`
}

func (h *SearchHandler) search(c internal.Context) error {
	term := strings.TrimSpace(c.Query("term"))
	if term == "" {
		return internal.ErrBadRequest("term is required", internal.WithErrorCode("missing_term"))
	}

	results, err := h.itunes.Search(c, itunes.SearchParams{
		Term:    term,
		Country: c.Query("country"),
		Limit:   internal.QueryInt(c, "limit", 0, 0, itunes.MaxLimit),
		Entity:  c.Query("entity"),
	})
	if err != nil {
		return upstreamError(err)
	}

	if userID := c.UserID(); userID != "" && h.history != nil {
		entry := &store.SearchEntry{UserID: userID, Term: term, Locale: c.Query("country"), ResultCount: len(results)}
		if err := h.history.AddSearch(c, entry); err != nil {
			c.LogWarn("record search failed", "error", err)
		}
	}

	if results == nil {
		results = []itunes.Result{}
	}
	return c.JSON(http.StatusOK, searchResponse{Term: term, Count: len(results), Results: results})
}

func (h *SearchHandler) episodes(c internal.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return internal.ErrBadRequest("invalid podcast id", internal.WithErrorCode("invalid_id"))
	}

	eps, err := h.itunes.LookupEpisodes(c, id, internal.QueryInt(c, "limit", episodesDefault, 1, itunes.MaxLimit))
	if err != nil {
		return upstreamError(err)
	}
	if eps == nil {
		eps = []itunes.Result{}
	}
	return c.JSON(http.StatusOK, map[string]any{"podcast_id": id, "count": len(eps), "episodes": eps})
}

func (h *SearchHandler) listHistory(c internal.Context) error {
	limit := internal.QueryInt(c, "limit", historyDefaultLimit, 1, historyMaxLimit)
	items, err := h.history.ListSearches(c, c.UserID(), limit)
	if err != nil {
		return err
	}
	if items == nil {
		items = []store.SearchEntry{}
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *SearchHandler) clearHistory(c internal.Context) error {
	n, err := h.history.DeleteSearches(c, c.UserID())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"deleted": n})
}

func upstreamError(err error) error {
	switch {
	case errors.Is(err, itunes.ErrEmptyTerm):
		return internal.ErrBadRequest("term is required", internal.WithError(err), internal.WithErrorCode("missing_term"))
	case errors.Is(err, itunes.ErrInvalidID), errors.Is(err, itunes.ErrNotAPodcast):
		return internal.ErrNotFound("podcast not found", internal.WithError(err), internal.WithErrorCode("not_found"))
	default:
		return internal.NewHTTPError(http.StatusBadGateway, "podcast directory unavailable",
			internal.WithError(err), internal.WithErrorCode("upstream_error"))
	}
}
