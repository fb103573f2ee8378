package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/internal/store"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/id"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/oauth"
)

const (
	notionStateCookie = "notion_oauth"
	notionStateTTL    = 10 * time.Minute
)

// NotionStore persists Notion workspace tokens.
type NotionStore interface {
	SaveNotionToken(ctx context.Context, t *store.NotionToken) error
	GetNotionToken(ctx context.Context, userID string) (*store.NotionToken, error)
	DeleteNotionToken(ctx context.Context, userID string) error
}

// NotionHandler runs the Notion OAuth flow. The state travels in a signed
// cookie together with the user id, because the callback arrives from
// Notion without the user's access token.
type NotionHandler struct {
	provider oauth.Provider
	tokens   NotionStore
	guards   Guards
	// returnTo is where the browser lands after the callback.
	returnTo string
}

func NewNotion(provider oauth.Provider, tokens NotionStore, guards Guards, returnTo string) *NotionHandler {
	if returnTo == "" {
		returnTo = "/"
	}
	return &NotionHandler{provider: provider, tokens: tokens, guards: guards, returnTo: returnTo}
}

func (h *NotionHandler) Routes(r internal.Router) {
	r.GET("/api/notion/callback", h.callback)
	r.Group(func(r internal.Router) {
		r.Use(h.guards.required())
		r.GET("/api/notion/authorize", h.authorize)
		r.GET("/api/notion/status", h.status)
		r.DELETE("/api/notion/token", h.disconnect)
	})
}

// authorize answers with the consent URL. Browsers following a plain link
// are redirected; API clients asking for JSON get {"url": ...}.
func (h *NotionHandler) authorize(c internal.Context) error {
	state := id.NewToken("", 24)
	if err := c.SetCookieSigned(notionStateCookie, state+"."+c.UserID(), notionStateTTL); err != nil {
		return err
	}
	consent := h.provider.AuthCodeURL(state)
	if strings.Contains(c.Header("Accept"), "application/json") {
		return c.JSON(http.StatusOK, map[string]string{"url": consent})
	}
	return c.Redirect(http.StatusFound, consent)
}

func (h *NotionHandler) callback(c internal.Context) error {
	raw, err := c.CookieSigned(notionStateCookie)
	c.DeleteCookie(notionStateCookie)
	if err != nil {
		return internal.ErrBadRequest("authorization expired, start again", internal.WithError(err),
			internal.WithErrorCode("invalid_state"))
	}
	state, userID, ok := strings.Cut(raw, ".")
	if !ok || userID == "" || subtle.ConstantTimeCompare([]byte(state), []byte(c.Query("state"))) != 1 {
		return internal.ErrBadRequest("authorization state mismatch", internal.WithErrorCode("invalid_state"))
	}

	if reason := c.Query("error"); reason != "" {
		c.LogInfo("notion authorization declined", "reason", reason)
		return c.Redirect(http.StatusFound, h.redirect("denied"))
	}

	conn, err := h.provider.Exchange(c, c.Query("code"))
	if err != nil {
		if errors.Is(err, oauth.ErrEmptyCode) {
			return internal.ErrBadRequest("missing authorization code", internal.WithError(err), internal.WithErrorCode("missing_code"))
		}
		return internal.NewHTTPError(http.StatusBadGateway, "notion authorization failed",
			internal.WithError(err), internal.WithErrorCode("oauth_failed"))
	}

	err = h.tokens.SaveNotionToken(c, &store.NotionToken{
		UserID:        userID,
		AccessToken:   conn.AccessToken,
		WorkspaceID:   conn.WorkspaceID,
		WorkspaceName: conn.WorkspaceName,
		WorkspaceIcon: conn.WorkspaceIcon,
		BotID:         conn.BotID,
	})
	if err != nil {
		return err
	}
	c.LogInfo("notion connected", "workspace_id", conn.WorkspaceID)
	return c.Redirect(http.StatusFound, h.redirect("connected"))
}

func (h *NotionHandler) status(c internal.Context) error {
	tok, err := h.tokens.GetNotionToken(c, c.UserID())
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusOK, map[string]any{"connected": false})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"connected": true, "workspace": tok})
}

func (h *NotionHandler) disconnect(c internal.Context) error {
	if err := h.tokens.DeleteNotionToken(c, c.UserID()); err != nil {
		return storeError(err, "notion connection")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *NotionHandler) redirect(result string) string {
	u, err := url.Parse(h.returnTo)
	if err != nil {
		return "/?notion=" + result
	}
	q := u.Query()
	q.Set("notion", result)
	u.RawQuery = q.Encode()
	return u.String()
}
