package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/logger"
)

// APIKeyPrefix marks latios API keys.
const APIKeyPrefix = "lat_"

// APIKeyHeader carries an API key.
const APIKeyHeader = "X-API-Key"

var (
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrInvalidAPIKey      = errors.New("auth: invalid api key")
)

// AuthConfig is loaded with the AUTH_ prefix. Secret is the Supabase
// project's JWT secret.
type AuthConfig struct {
	Secret   string        `env:"JWT_SECRET"`
	Audience string        `env:"JWT_AUDIENCE" envDefault:"authenticated"`
	Leeway   time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`
}

// Claims is the subset of a Supabase access token the service reads.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// APIKeyAuthenticator resolves an API key secret to its owner.
type APIKeyAuthenticator interface {
	AuthenticateAPIKey(ctx context.Context, secret string) (userID string, err error)
}

type authOptions struct {
	apiKeys  APIKeyAuthenticator
	token    internal.Extractor
	optional bool
}

// AuthOption configures Auth.
type AuthOption func(*authOptions)

// WithAPIKeys accepts X-API-Key credentials checked by a.
func WithAPIKeys(a APIKeyAuthenticator) AuthOption {
	return func(o *authOptions) {
		o.apiKeys = a
	}
}

// WithTokenExtractor replaces the default bearer-token lookup.
func WithTokenExtractor(ext internal.Extractor) AuthOption {
	return func(o *authOptions) {
		o.token = ext
	}
}

// OptionalAuth lets anonymous requests through. Invalid credentials are
// still rejected.
func OptionalAuth() AuthOption {
	return func(o *authOptions) {
		o.optional = true
	}
}

type userEmailKey struct{}

// Auth authenticates a request by a Supabase access token
// (Authorization: Bearer, HS256, sub is a UUID, aud matches) or by a latios
// API key in X-API-Key. The user id lands under internal.UserIDKey.
func Auth(cfg AuthConfig, opts ...AuthOption) internal.Middleware {
	o := &authOptions{
		token: internal.NewExtractor(internal.FromBearerToken()),
	}
	for _, opt := range opts {
		opt(o)
	}
	if cfg.Audience == "" {
		cfg.Audience = "authenticated"
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	)
	secret := []byte(cfg.Secret)

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if key := strings.TrimSpace(c.Header(APIKeyHeader)); key != "" {
				if o.apiKeys == nil || !strings.HasPrefix(key, APIKeyPrefix) {
					return unauthorized(ErrInvalidAPIKey)
				}
				userID, err := o.apiKeys.AuthenticateAPIKey(c, key)
				if err != nil {
					c.LogDebug("api key rejected", "error", err)
					return unauthorized(errors.Join(ErrInvalidAPIKey, err))
				}
				c.Set(internal.UserIDKey{}, userID)
				return next(c)
			}

			raw, ok := o.token.Extract(c)
			if !ok {
				if o.optional {
					return next(c)
				}
				return unauthorized(ErrMissingCredentials)
			}
			if len(secret) == 0 {
				return unauthorized(ErrInvalidToken)
			}

			claims, err := parseToken(parser, secret, raw)
			if err != nil {
				c.LogDebug("token rejected", "error", err)
				return unauthorized(err)
			}

			c.Set(internal.UserIDKey{}, claims.Subject)
			if claims.Email != "" {
				c.Set(userEmailKey{}, claims.Email)
			}
			return next(c)
		}
	}
}

func parseToken(p *jwt.Parser, secret []byte, raw string) (*Claims, error) {
	var claims Claims
	_, err := p.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, errors.Join(ErrInvalidToken, errors.New("subject is not a uuid"))
	}
	return &claims, nil
}

func unauthorized(err error) *internal.HTTPError {
	msg := "invalid credentials"
	switch {
	case errors.Is(err, ErrMissingCredentials):
		msg = "authentication required"
	case errors.Is(err, jwt.ErrTokenExpired):
		msg = "token expired"
	}
	return internal.ErrUnauthorized(msg, internal.WithError(err), internal.WithErrorCode("unauthorized"))
}

// RequireUser rejects requests that reached it without a user. Use it on
// routes behind OptionalAuth that still need one.
func RequireUser() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if c.UserID() == "" {
				return unauthorized(ErrMissingCredentials)
			}
			return next(c)
		}
	}
}

// GetUserID returns the authenticated user id on ctx, or "".
func GetUserID(ctx context.Context) string {
	v, _ := ctx.Value(internal.UserIDKey{}).(string)
	return v
}

// GetUserEmail returns the email claim of the access token, or "".
func GetUserEmail(ctx context.Context) string {
	v, _ := ctx.Value(userEmailKey{}).(string)
	return v
}

// UserIDExtractor adds "user_id" to log records of authenticated requests.
func UserIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v := GetUserID(ctx); v != "" {
			return slog.String("user_id", v), true
		}
		return slog.Attr{}, false
	}
}
