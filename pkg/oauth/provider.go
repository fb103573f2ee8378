// Package oauth implements the authorization code flow for the third-party
// workspaces users connect to their account.
//
// Only Notion is wired today. The Provider interface keeps handlers
// independent of the concrete service:
//
//	p, err := oauth.NewNotionProvider(cfg)
//	url := p.AuthCodeURL(state)
//	// ... user approves, Notion redirects back with ?code=
//	conn, err := p.Exchange(ctx, code)
package oauth

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Connection is what a successful exchange yields: the bearer token plus
// the workspace it grants access to.
type Connection struct {
	AccessToken   string
	TokenType     string
	WorkspaceID   string
	WorkspaceName string
	WorkspaceIcon string
	BotID         string
	OwnerID       string
	OwnerEmail    string
	Expiry        time.Time
}

// Provider is an OAuth2 authorization code provider.
type Provider interface {
	// Name identifies the provider, e.g. "notion".
	Name() string
	// AuthCodeURL returns the consent page URL carrying state.
	AuthCodeURL(state string) string
	// Exchange trades the authorization code for a Connection.
	Exchange(ctx context.Context, code string) (*Connection, error)
}

func contextWithHTTPClient(ctx context.Context, client *http.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}
