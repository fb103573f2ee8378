// Package mailer sends localized notification emails.
//
// Templates are Markdown files with YAML front matter, stored per locale:
//
//	emails/
//	  layouts/base.html
//	  en/transcript_ready.md
//	  zh/transcript_ready.md
//
// The front matter carries the subject; both subject and body are
// text/template sources executed with the send data. A template missing
// for the requested locale falls back to the default locale.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"text/template"
)

// Config is loaded with the MAILER_ prefix.
type Config struct {
	Layout          string `env:"LAYOUT" envDefault:"base.html"`
	DefaultLocale   string `env:"DEFAULT_LOCALE" envDefault:"en"`
	FallbackSubject string `env:"FALLBACK_SUBJECT" envDefault:"Latios"`
}

// Mailer renders templates and hands the result to a Sender.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	cfg      Config
}

// New wires a mailer.
func New(sender Sender, renderer *Renderer, cfg Config) *Mailer {
	if cfg.Layout == "" {
		cfg.Layout = "base.html"
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = "en"
	}
	return &Mailer{sender: sender, renderer: renderer, cfg: cfg}
}

// SendParams describes one templated message.
type SendParams struct {
	To       string
	Locale   string
	Template string // name without extension, e.g. "transcript_ready"
	Data     any
	Subject  string // overrides the front matter subject
	Tags     map[string]string
}

// Send renders and delivers params.
func (m *Mailer) Send(ctx context.Context, params SendParams) error {
	if params.To == "" {
		return ErrNoRecipient
	}

	locale := params.Locale
	if locale == "" {
		locale = m.cfg.DefaultLocale
	}

	res, err := m.renderer.Render(m.cfg.Layout, locale, m.cfg.DefaultLocale, params.Template, params.Data)
	if err != nil {
		return errors.Join(ErrRenderFailed, err)
	}

	subject := params.Subject
	if subject == "" {
		subject, _ = res.Metadata["subject"].(string)
	}
	if subject == "" {
		subject = m.cfg.FallbackSubject
	}
	subject, err = executeSubject(subject, params.Data)
	if err != nil {
		return errors.Join(ErrRenderFailed, err)
	}

	email := &Email{
		To:      []string{params.To},
		Subject: subject,
		HTML:    res.HTML,
		Text:    res.Text,
		Tags:    params.Tags,
	}
	if err := m.sender.Send(ctx, email); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

func executeSubject(src string, data any) (string, error) {
	tmpl, err := template.New("subject").Parse(src)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
