package handlers

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/internal/store"
)

const maxKeyName = 64

// KeyStore manages API keys.
type KeyStore interface {
	CreateAPIKey(ctx context.Context, userID, name string) (*store.APIKey, string, error)
	ListAPIKeys(ctx context.Context, userID string) ([]store.APIKey, error)
	RevokeAPIKey(ctx context.Context, userID, keyID string) error
}

// KeysHandler lets signed-in users manage the API keys used by the
// browser extension and scripts.
type KeysHandler struct {
	keys   KeyStore
	guards Guards
}

func NewKeys(keys KeyStore, guards Guards) *KeysHandler {
	return &KeysHandler{keys: keys, guards: guards}
}

func (h *KeysHandler) Routes(r internal.Router) {
	r.Route("/api/keys", func(r internal.Router) {
		r.Use(h.guards.required())
		r.POST("/", h.create)
		r.GET("/", h.list)
		r.DELETE("/{id}", h.revoke)
	})
}

type createKeyRequest struct {
	Name string `json:"name"`
}

// createKeyResponse is the only place the secret is ever shown.
type createKeyResponse struct {
	store.APIKey
	Secret string `json:"secret"`
}

func (h *KeysHandler) create(c internal.Context) error {
	var req createKeyRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || utf8.RuneCountInString(req.Name) > maxKeyName {
		return internal.ErrUnprocessable("name must be 1 to 64 characters", internal.WithErrorCode("invalid_name"))
	}

	key, secret, err := h.keys.CreateAPIKey(c, c.UserID(), req.Name)
	if err != nil {
		return storeError(err, "api key")
	}
	return c.JSON(http.StatusCreated, createKeyResponse{APIKey: *key, Secret: secret})
}

func (h *KeysHandler) list(c internal.Context) error {
	keys, err := h.keys.ListAPIKeys(c, c.UserID())
	if err != nil {
		return err
	}
	if keys == nil {
		keys = []store.APIKey{}
	}
	return c.JSON(http.StatusOK, map[string]any{"keys": keys})
}

func (h *KeysHandler) revoke(c internal.Context) error {
	id := c.Param("id")
	if err := uuid.Validate(id); err != nil {
		return internal.ErrBadRequest("invalid key id", internal.WithError(err), internal.WithErrorCode("invalid_id"))
	}
	if err := h.keys.RevokeAPIKey(c, c.UserID(), id); err != nil {
		return storeError(err, "api key")
	}
	return c.NoContent(http.StatusNoContent)
}
