package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/internal/store"
	"github.com/tonyc-ship/latios-oss-sub001/internal/views"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/htmx"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/i18n"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/itunes"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/locale"
)

// pageNamespace is the catalog namespace the page views read.
const pageNamespace = "common"

// PageHandler serves the server-rendered pages in the negotiated locale.
// Paths the locale middleware skips (a dot in an episode id, say) are
// rendered in the default locale.
type PageHandler struct {
	itunes    itunes.Searcher
	summaries SummaryStore
	fallback  views.Page
}

func NewPages(s itunes.Searcher, summaries SummaryStore, cat *i18n.Catalog, cfg locale.Config) *PageHandler {
	def := cfg.DefaultLocale()
	fb := views.Page{Locale: def}
	if cat != nil {
		fb.Translator = cat.Translator(def, pageNamespace)
	}
	return &PageHandler{itunes: s, summaries: summaries, fallback: fb}
}

func (h *PageHandler) Routes(r internal.Router) {
	r.GET("/", h.home)
	r.GET("/search", h.search)
	r.GET("/summaries/{episode}", h.summary)
}

func (h *PageHandler) page(c internal.Context) views.Page {
	tr := c.Translator()
	if tr == nil {
		return h.fallback
	}
	loc := c.Locale()
	if loc == "" {
		loc = h.fallback.Locale
	}
	return views.Page{Translator: tr, Locale: loc}
}

func (h *PageHandler) home(c internal.Context) error {
	return c.Render(http.StatusOK, views.Home(h.page(c)))
}

// search renders the full results page, or only the #results fragment when
// htmx asks for it from the live search box.
func (h *PageHandler) search(c internal.Context) error {
	c.Response().Header().Add("Vary", htmx.HeaderRequest)
	partial := htmx.IsPartial(c.Request())

	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		if partial {
			return c.Render(http.StatusOK, views.EmptyResults())
		}
		return c.Redirect(http.StatusSeeOther, "/")
	}
	p := h.page(c)
	p.Query = term

	results, err := h.itunes.Search(c, itunes.SearchParams{Term: term, Country: c.Query("country")})
	if err != nil {
		return upstreamError(err)
	}
	if partial {
		htmx.PushURL(c.Response(), views.SearchURL(term))
		return c.Render(http.StatusOK, views.ResultList(p, term, results))
	}
	return c.Render(http.StatusOK, views.SearchResults(p, term, results))
}

// summary shows the summary in the page language, falling back to English.
func (h *PageHandler) summary(c internal.Context) error {
	episode := c.Param("episode")
	p := h.page(c)
	lang, ok := store.ParseLanguage(p.Locale)
	if !ok {
		lang = store.LanguageEnglish
	}

	sm, err := h.summaries.GetSummary(c, episode, lang)
	if errors.Is(err, store.ErrNotFound) && lang != store.LanguageEnglish {
		sm, err = h.summaries.GetSummary(c, episode, store.LanguageEnglish)
	}
	if errors.Is(err, store.ErrNotFound) {
		return c.Render(http.StatusNotFound, views.SummaryPage(p, views.SummaryView{EpisodeID: episode}))
	}
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, views.SummaryPage(p, views.SummaryView{
		EpisodeID: sm.EpisodeID,
		Podcast:   sm.PodcastName,
		Episode:   sm.EpisodeTitle,
		Markdown:  sm.Content,
		PubDate:   sm.PubDate,
		Duration:  time.Duration(sm.EpisodeDuration) * time.Second,
	}))
}

// NotFound renders the 404 page for browser paths and the JSON error for
// API paths.
func (h *PageHandler) NotFound(c internal.Context) error {
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		return internal.ErrNotFound("", internal.WithErrorCode("not_found"))
	}
	return c.Render(http.StatusNotFound, views.NotFound(h.page(c)))
}
