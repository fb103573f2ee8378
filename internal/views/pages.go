package views

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/tonyc-ship/latios-oss-sub001/pkg/i18n"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/itunes"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/sanitizer"
)

const htmxScript = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

// Page carries what every page needs from the request.
type Page struct {
	Translator *i18n.Translator
	Locale     string
	// Query prefills the search box.
	Query string
}

// T translates key, or returns it when no translator is bound.
func (p Page) T(key string, placeholders ...i18n.M) string {
	if p.Translator == nil {
		return i18n.Replace(key, placeholders...)
	}
	return p.Translator.T(key, placeholders...)
}

func (p Page) Tn(key string, n int, placeholders ...i18n.M) string {
	if p.Translator == nil {
		return i18n.Replace(key, placeholders...)
	}
	return p.Translator.Tn(key, n, placeholders...)
}

func (p Page) lang() string {
	if p.Locale == "" {
		return DefaultLocale
	}
	return p.Locale
}

// SummaryView is the data behind the summary page.
type SummaryView struct {
	EpisodeID string
	Podcast   string
	Episode   string
	Markdown  string
	PubDate   *time.Time
	Duration  time.Duration
}

// Layout wraps body in the HTML document. The lang attribute follows the
// negotiated locale.
func Layout(p Page, title string, body templ.Component) templ.Component {
	full := p.T("app.name")
	if title != "" {
		full = title + " · " + full
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="%s"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title>`+
			`<link rel="stylesheet" href="/static/app.css">`+
			`<script src="`+htmxScript+`" defer></script></head><body>`,
			templ.EscapeString(p.lang()), templ.EscapeString(full)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<header><a href="/">%s</a>%s</header><main>`,
			templ.EscapeString(p.T("app.name")), searchForm(p, p.Query)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

func searchForm(p Page, term string) string {
	return fmt.Sprintf(`<form action="/search" method="get" role="search" `+
		`hx-get="/search" hx-target="#results" hx-swap="outerHTML" hx-trigger="submit, input changed delay:400ms">`+
		`<input type="search" name="q" value="%s" placeholder="%s"><button type="submit">%s</button></form>`,
		templ.EscapeString(term),
		templ.EscapeString(p.T("search.placeholder")),
		templ.EscapeString(p.T("search.button")))
}

// Home is the landing page.
func Home(p Page) templ.Component {
	return Layout(p, "", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<section class="hero"><h1>%s</h1><p>%s</p></section><section id="results"></section>`,
			templ.EscapeString(p.T("app.name")), templ.EscapeString(p.T("app.tagline")))
		return err
	}))
}

// SearchResults lists podcasts matching term.
func SearchResults(p Page, term string, results []itunes.Result) templ.Component {
	return Layout(p, p.T("search.title", i18n.M{"term": term}), ResultList(p, term, results))
}

// EmptyResults clears the #results fragment.
func EmptyResults() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<section id="results"></section>`)
		return err
	})
}

// ResultList is the #results fragment that htmx swaps in as the user types.
func ResultList(p Page, term string, results []itunes.Result) templ.Component {
	title := p.T("search.title", i18n.M{"term": term})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section id="results"><h1>%s</h1>`, templ.EscapeString(title)); err != nil {
			return err
		}
		if len(results) == 0 {
			_, err := fmt.Fprintf(w, `<p class="empty">%s</p></section>`, templ.EscapeString(p.T("search.empty", i18n.M{"term": term})))
			return err
		}
		if _, err := fmt.Fprintf(w, `<p class="count">%s</p><ul class="podcasts">`,
			templ.EscapeString(p.Tn("search.results", len(results), i18n.M{"count": len(results)}))); err != nil {
			return err
		}
		for _, r := range results {
			if err := podcastItem(p, r).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul></section>`)
		return err
	})
}

func podcastItem(p Page, r itunes.Result) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		href := "/api/podcasts/" + strconv.FormatInt(r.CollectionID, 10) + "/episodes"
		if _, err := fmt.Fprintf(w, `<li data-id="%d">`, r.CollectionID); err != nil {
			return err
		}
		if r.ArtworkURL100 != "" {
			if _, err := fmt.Fprintf(w, `<img src="%s" alt="" loading="lazy" width="100" height="100">`,
				templ.EscapeString(string(templ.URL(r.ArtworkURL100)))); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, `<a href="%s">%s</a>`,
			templ.EscapeString(href), templ.EscapeString(r.CollectionName)); err != nil {
			return err
		}
		if r.ArtistName != "" {
			if _, err := fmt.Fprintf(w, `<span class="artist">%s</span>`,
				templ.EscapeString(p.T("podcast.by", i18n.M{"artist": r.ArtistName}))); err != nil {
				return err
			}
		}
		if r.TrackCount > 0 {
			if _, err := fmt.Fprintf(w, `<span class="episodes">%s</span>`,
				templ.EscapeString(p.Tn("podcast.episodes", r.TrackCount, i18n.M{"count": r.TrackCount}))); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</li>`)
		return err
	})
}

// SummaryPage renders a stored summary. Markdown is converted and sanitized
// before it reaches the page.
func SummaryPage(p Page, v SummaryView) templ.Component {
	title := v.Episode
	if title == "" {
		title = p.T("summary.title")
	}
	return Layout(p, title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<article class="summary" data-episode="%s"><h1>%s</h1>`,
			templ.EscapeString(v.EpisodeID), templ.EscapeString(title)); err != nil {
			return err
		}
		if v.Podcast != "" {
			if _, err := fmt.Fprintf(w, `<p class="podcast">%s</p>`, templ.EscapeString(v.Podcast)); err != nil {
				return err
			}
		}
		if err := summaryMeta(p, v).Render(ctx, w); err != nil {
			return err
		}
		if v.Markdown == "" {
			_, err := fmt.Fprintf(w, `<p class="empty">%s</p></article>`, templ.EscapeString(p.T("summary.missing")))
			return err
		}
		html, err := sanitizer.Markdown(v.Markdown)
		if err != nil {
			return fmt.Errorf("render summary %s: %w", v.EpisodeID, err)
		}
		if _, err := fmt.Fprintf(w, `<h2>%s</h2><div class="content">`, templ.EscapeString(p.T("summary.title"))); err != nil {
			return err
		}
		if err := templ.Raw(html).Render(ctx, w); err != nil {
			return err
		}
		_, err = io.WriteString(w, `</div></article>`)
		return err
	}))
}

func summaryMeta(p Page, v SummaryView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if v.PubDate == nil && v.Duration <= 0 {
			return nil
		}
		if _, err := io.WriteString(w, `<p class="meta">`); err != nil {
			return err
		}
		if v.PubDate != nil {
			date := v.PubDate.Format(time.DateOnly)
			if p.Translator != nil {
				date = p.Translator.FormatDate(*v.PubDate)
			}
			if _, err := fmt.Fprintf(w, `<time datetime="%s">%s</time> `,
				v.PubDate.Format(time.RFC3339), templ.EscapeString(p.T("summary.published", i18n.M{"date": date}))); err != nil {
				return err
			}
		}
		if v.Duration > 0 {
			d := v.Duration.Round(time.Minute).String()
			if p.Translator != nil {
				d = p.Translator.FormatDuration(v.Duration)
			}
			if _, err := fmt.Fprintf(w, `<span class="length">%s</span>`,
				templ.EscapeString(p.T("summary.length", i18n.M{"duration": d}))); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</p>`)
		return err
	})
}

// NotFound is rendered for unknown pages.
func NotFound(p Page) templ.Component {
	return Layout(p, p.T("errors.not_found"), templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<h1>%s</h1><p><a href="/">%s</a></p>`,
			templ.EscapeString(p.T("errors.not_found")), templ.EscapeString(p.T("errors.back_home")))
		return err
	}))
}

// SearchURL builds the page URL for a search term.
func SearchURL(term string) string {
	return "/search?" + url.Values{"q": {term}}.Encode()
}
