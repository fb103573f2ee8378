// Package sanitizer cleans untrusted HTML coming from podcast feeds and
// renders stored Markdown summaries into safe HTML.
package sanitizer

import (
	"bytes"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	strictPolicy  *bluemonday.Policy
	contentPolicy *bluemonday.Policy
	initOnce      sync.Once

	md = goldmark.New(goldmark.WithExtensions(extension.GFM))
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		contentPolicy = bluemonday.NewPolicy()
		contentPolicy.AllowStandardURLs()
		contentPolicy.AllowElements(
			"p", "br", "hr",
			"h1", "h2", "h3", "h4",
			"strong", "b", "em", "i", "del",
			"ul", "ol", "li",
			"code", "pre", "blockquote",
			"table", "thead", "tbody", "tr", "th", "td",
		)
		contentPolicy.AllowAttrs("href").OnElements("a")
		contentPolicy.RequireNoFollowOnLinks(true)
		contentPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	})
}

// StripHTML removes every tag and returns plain text with entities
// unescaped and whitespace collapsed. Episode descriptions from iTunes feeds
// go through this before display.
func StripHTML(s string) string {
	initPolicies()
	return strings.Join(strings.Fields(html.UnescapeString(strictPolicy.Sanitize(s))), " ")
}

// SanitizeHTML keeps formatting tags and links and drops everything else,
// including scripts, event handlers and javascript: URLs.
func SanitizeHTML(s string) string {
	initPolicies()
	return contentPolicy.Sanitize(s)
}

// Markdown renders GitHub-flavoured Markdown and sanitizes the result.
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return SanitizeHTML(buf.String()), nil
}
