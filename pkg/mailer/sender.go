package mailer

import (
	"context"
	"errors"
	"log/slog"
)

var (
	ErrNoRecipient        = errors.New("mailer: no recipient")
	ErrTemplateNotFound   = errors.New("mailer: template not found")
	ErrLayoutNotFound     = errors.New("mailer: layout not found")
	ErrInvalidFrontmatter = errors.New("mailer: invalid front matter")
	ErrRenderFailed       = errors.New("mailer: render failed")
	ErrSendFailed         = errors.New("mailer: send failed")
)

// Email is a rendered message ready for delivery.
type Email struct {
	To      []string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
	Tags    map[string]string
}

// Sender delivers rendered email.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// LogSender writes messages to a logger instead of delivering them. It is
// used when no email provider is configured.
type LogSender struct {
	Logger *slog.Logger
}

// Send logs the envelope.
func (s LogSender) Send(ctx context.Context, email *Email) error {
	s.Logger.InfoContext(ctx, "email not sent, no provider configured",
		slog.Any("to", email.To),
		slog.String("subject", email.Subject),
	)
	return nil
}

// Address formats an RFC 5322 mailbox, "Name <email>" when name is set.
func Address(name, email string) string {
	if name == "" {
		return email
	}
	return name + " <" + email + ">"
}
