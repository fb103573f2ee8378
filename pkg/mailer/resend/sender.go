// Package resend delivers mailer messages through the Resend API.
package resend

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"github.com/tonyc-ship/latios-oss-sub001/pkg/mailer"
)

// Config is loaded with the RESEND_ prefix.
type Config struct {
	APIKey    string `env:"API_KEY"`
	FromEmail string `env:"FROM_EMAIL" envDefault:"noreply@latios.ai"`
	FromName  string `env:"FROM_NAME" envDefault:"Latios"`
}

// Enabled reports whether an API key is set.
func (c Config) Enabled() bool { return c.APIKey != "" }

var _ mailer.Sender = (*Sender)(nil)

// Sender implements mailer.Sender.
type Sender struct {
	client *resend.Client
	from   string
}

// New builds a sender.
func New(cfg Config) *Sender {
	return &Sender{
		client: resend.NewClient(cfg.APIKey),
		from:   mailer.Address(cfg.FromName, cfg.FromEmail),
	}
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	req := &resend.SendEmailRequest{
		From:    s.from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
	}
	for name, value := range email.Tags {
		req.Tags = append(req.Tags, resend.Tag{Name: name, Value: value})
	}

	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
