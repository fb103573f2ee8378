package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/internal/store"
)

// maxSummaryBytes stays under internal.MaxBodySize with room for metadata.
const maxSummaryBytes = 512 << 10

// SummaryStore persists episode summaries.
type SummaryStore interface {
	UpsertSummary(ctx context.Context, s *store.Summary) error
	GetSummary(ctx context.Context, episodeID string, lang store.Language) (*store.Summary, error)
}

// SummaryHandler stores summaries produced by clients and serves them back.
type SummaryHandler struct {
	store  SummaryStore
	guards Guards
}

func NewSummaries(s SummaryStore, guards Guards) *SummaryHandler {
	return &SummaryHandler{store: s, guards: guards}
}

func (h *SummaryHandler) Routes(r internal.Router) {
	r.Route("/api/summaries", func(r internal.Router) {
		r.Group(func(r internal.Router) {
			r.Use(h.guards.required())
			r.POST("/", h.save)
		})
		r.Group(func(r internal.Router) {
			r.Use(h.guards.optional())
			r.GET("/{episode}", h.get)
		})
	})
}

type summaryRequest struct {
	EpisodeID       string `json:"episode_id"`
	Language        string `json:"language"`
	Content         string `json:"content"`
	PodcastName     string `json:"podcast_name"`
	EpisodeTitle    string `json:"episode_title"`
	EpisodeDuration int    `json:"episode_duration"`
	PubDate         string `json:"pub_date"`
}

func (h *SummaryHandler) save(c internal.Context) error {
	var req summaryRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	req.EpisodeID = strings.TrimSpace(req.EpisodeID)
	switch {
	case req.EpisodeID == "":
		return internal.ErrUnprocessable("episode_id is required", internal.WithErrorCode("missing_episode"))
	case strings.TrimSpace(req.Content) == "":
		return internal.ErrUnprocessable("content is required", internal.WithErrorCode("missing_content"))
	case len(req.Content) > maxSummaryBytes:
		return internal.ErrUnprocessable("content is too long", internal.WithErrorCode("content_too_long"))
	case req.EpisodeDuration < 0:
		return internal.ErrUnprocessable("episode_duration must not be negative", internal.WithErrorCode("invalid_duration"))
	}
	lang, err := language(req.Language)
	if err != nil {
		return err
	}

	sm := &store.Summary{
		EpisodeID:       req.EpisodeID,
		Language:        lang,
		Status:          store.StatusDone,
		Content:         req.Content,
		PodcastName:     req.PodcastName,
		EpisodeTitle:    req.EpisodeTitle,
		EpisodeDuration: req.EpisodeDuration,
		PubDate:         ParsePubDate(req.PubDate),
		UserID:          c.UserID(),
	}
	if err := h.store.UpsertSummary(c, sm); err != nil {
		return storeError(err, "summary")
	}
	return c.JSON(http.StatusOK, sm)
}

func (h *SummaryHandler) get(c internal.Context) error {
	lang, err := language(c.Query("language"))
	if err != nil {
		return err
	}
	sm, err := h.store.GetSummary(c, c.Param("episode"), lang)
	if err != nil {
		return storeError(err, "summary")
	}
	return c.JSON(http.StatusOK, sm)
}
