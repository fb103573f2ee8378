package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

var _ Provider = (*NotionProvider)(nil)

// NotionProvider connects a Notion workspace through a public integration.
type NotionProvider struct {
	config *oauth2.Config
	opts   options
}

// NewNotionProvider validates cfg and builds the provider.
func NewNotionProvider(cfg NotionConfig, opts ...Option) (*NotionProvider, error) {
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if cfg.ClientSecret == "" {
		return nil, ErrMissingClientSecret
	}
	if cfg.RedirectURL == "" {
		return nil, ErrMissingRedirectURL
	}

	p := &NotionProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
	}
	for _, opt := range opts {
		opt(&p.opts)
	}
	return p, nil
}

// Name returns "notion".
func (p *NotionProvider) Name() string { return "notion" }

// AuthCodeURL returns the Notion consent page. Notion grants access per
// user, so owner=user is always sent.
func (p *NotionProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("owner", "user"))
}

// Exchange trades code for an access token and the workspace metadata
// Notion returns alongside it.
func (p *NotionProvider) Exchange(ctx context.Context, code string) (*Connection, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrEmptyCode
	}

	ctx = contextWithHTTPClient(ctx, p.opts.httpClient)
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Join(ErrExchangeFailed, err)
	}

	conn := &Connection{
		AccessToken:   token.AccessToken,
		TokenType:     token.TokenType,
		Expiry:        token.Expiry,
		WorkspaceID:   extraString(token, "workspace_id"),
		WorkspaceName: extraString(token, "workspace_name"),
		WorkspaceIcon: extraString(token, "workspace_icon"),
		BotID:         extraString(token, "bot_id"),
	}
	if conn.WorkspaceID == "" {
		return nil, ErrMissingWorkspace
	}

	// owner: {"type": "user", "user": {"id": ..., "person": {"email": ...}}}
	if owner, ok := token.Extra("owner").(map[string]any); ok {
		if user, ok := owner["user"].(map[string]any); ok {
			conn.OwnerID = fmt.Sprint(valueOr(user["id"], ""))
			if person, ok := user["person"].(map[string]any); ok {
				conn.OwnerEmail = fmt.Sprint(valueOr(person["email"], ""))
			}
		}
	}

	return conn, nil
}

func extraString(token *oauth2.Token, key string) string {
	s, _ := token.Extra(key).(string)
	return s
}

func valueOr(v, fallback any) any {
	if v == nil {
		return fallback
	}
	return v
}
