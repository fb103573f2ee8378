package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
)

// Renderer turns Markdown templates into HTML wrapped in a layout. Parsed
// templates are cached; rendered output never is.
type Renderer struct {
	fsys fs.FS
	md   goldmark.Markdown

	mu        sync.RWMutex
	templates map[string]*parsedTemplate
	layouts   map[string]*template.Template
}

type parsedTemplate struct {
	meta map[string]any
	body *texttemplate.Template
}

// Result is a rendered message.
type Result struct {
	Metadata map[string]any
	HTML     string
	Text     string
}

// NewRenderer reads templates from fsys.
func NewRenderer(fsys fs.FS) *Renderer {
	return &Renderer{
		fsys:      fsys,
		md:        goldmark.New(goldmark.WithExtensions(ButtonExtension{})),
		templates: make(map[string]*parsedTemplate),
		layouts:   make(map[string]*template.Template),
	}
}

// Render executes {locale}/{name}.md, falling back to the default locale,
// and wraps the HTML in layouts/{layout}.
func (r *Renderer) Render(layout, locale, defaultLocale, name string, data any) (*Result, error) {
	tmpl, err := r.template(locale, name)
	if err != nil && locale != defaultLocale {
		tmpl, err = r.template(defaultLocale, name)
	}
	if err != nil {
		return nil, err
	}

	var markdown bytes.Buffer
	if err := tmpl.body.Execute(&markdown, data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}

	var body bytes.Buffer
	if err := r.md.Convert(markdown.Bytes(), &body); err != nil {
		return nil, fmt.Errorf("convert %s: %w", name, err)
	}

	lt, err := r.layout(layout)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	err = lt.Execute(&out, map[string]any{
		"Content":  template.HTML(body.String()),
		"Metadata": tmpl.meta,
		"Locale":   locale,
	})
	if err != nil {
		return nil, fmt.Errorf("execute layout %s: %w", layout, err)
	}

	return &Result{Metadata: tmpl.meta, HTML: out.String(), Text: markdown.String()}, nil
}

func (r *Renderer) template(locale, name string) (*parsedTemplate, error) {
	key := path.Join(locale, name+".md")

	r.mu.RLock()
	t, ok := r.templates[key]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	content, err := fs.ReadFile(r.fsys, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, key)
	}
	meta, body, err := parseTemplate(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	parsed, err := texttemplate.New(key).Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}

	t = &parsedTemplate{meta: meta, body: parsed}
	r.mu.Lock()
	r.templates[key] = t
	r.mu.Unlock()
	return t, nil
}

func (r *Renderer) layout(name string) (*template.Template, error) {
	key := path.Join("layouts", name)

	r.mu.RLock()
	lt, ok := r.layouts[key]
	r.mu.RUnlock()
	if ok {
		return lt, nil
	}

	content, err := fs.ReadFile(r.fsys, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, key)
	}
	lt, err = template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", key, err)
	}

	r.mu.Lock()
	r.layouts[key] = lt
	r.mu.Unlock()
	return lt, nil
}
