package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/middlewares"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

type apiKeysMock struct {
	mock.Mock
}

func (m *apiKeysMock) AuthenticateAPIKey(ctx context.Context, secret string) (string, error) {
	args := m.Called(ctx, secret)
	return args.String(0), args.Error(1)
}

func signToken(t *testing.T, secret string, claims middlewares.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func validClaims(sub string) middlewares.Claims {
	return middlewares.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email: "listener@example.com",
		Role:  "authenticated",
	}
}

func whoami(c internal.Context) error {
	return c.String(http.StatusOK, c.UserID()+"|"+middlewares.GetUserEmail(c))
}

func TestAuthBearerToken(t *testing.T) {
	t.Parallel()

	cfg := middlewares.AuthConfig{Secret: testSecret, Audience: "authenticated"}
	userID := uuid.NewString()

	expired := validClaims(userID)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongAud := validClaims(userID)
	wrongAud.Audience = jwt.ClaimStrings{"anon"}

	noExp := validClaims(userID)
	noExp.ExpiresAt = nil

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
		wantMsg  string
	}{
		{
			name:     "valid token",
			header:   "Bearer " + signToken(t, testSecret, validClaims(userID)),
			wantCode: http.StatusOK,
			wantBody: userID + "|listener@example.com",
		},
		{
			name:     "lowercase scheme",
			header:   "bearer " + signToken(t, testSecret, validClaims(userID)),
			wantCode: http.StatusOK,
			wantBody: userID + "|listener@example.com",
		},
		{name: "missing header", wantCode: http.StatusUnauthorized, wantMsg: "authentication required"},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantCode: http.StatusUnauthorized, wantMsg: "authentication required"},
		{name: "expired", header: "Bearer " + signToken(t, testSecret, expired), wantCode: http.StatusUnauthorized, wantMsg: "token expired"},
		{name: "wrong audience", header: "Bearer " + signToken(t, testSecret, wrongAud), wantCode: http.StatusUnauthorized, wantMsg: "invalid credentials"},
		{name: "no expiry", header: "Bearer " + signToken(t, testSecret, noExp), wantCode: http.StatusUnauthorized, wantMsg: "invalid credentials"},
		{name: "wrong secret", header: "Bearer " + signToken(t, "another-secret-another-secret-another", validClaims(userID)), wantCode: http.StatusUnauthorized, wantMsg: "invalid credentials"},
		{name: "subject not a uuid", header: "Bearer " + signToken(t, testSecret, validClaims("user-1")), wantCode: http.StatusUnauthorized, wantMsg: "invalid credentials"},
		{name: "garbage", header: "Bearer not.a.jwt", wantCode: http.StatusUnauthorized, wantMsg: "invalid credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(t, req, "/api/me", whoami, middlewares.Auth(cfg))

			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
			if tt.wantMsg != "" {
				body := decodeError(t, w.Body)
				assert.Equal(t, tt.wantMsg, body["message"])
				assert.Equal(t, "unauthorized", body["code"])
			}
		})
	}
}

func TestAuthRejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, validClaims(uuid.NewString())).SignedString([]byte(testSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := serve(t, req, "/", whoami, middlewares.Auth(middlewares.AuthConfig{Secret: testSecret}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthAPIKey(t *testing.T) {
	t.Parallel()

	userID := uuid.NewString()
	keys := &apiKeysMock{}
	keys.On("AuthenticateAPIKey", mock.Anything, "lat_good").Return(userID, nil)
	keys.On("AuthenticateAPIKey", mock.Anything, "lat_revoked").Return("", errors.New("revoked"))

	mw := middlewares.Auth(middlewares.AuthConfig{Secret: testSecret}, middlewares.WithAPIKeys(keys))

	t.Run("valid key", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middlewares.APIKeyHeader, "lat_good")
		w := serve(t, req, "/", whoami, mw)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID+"|", w.Body.String())
	})

	t.Run("revoked key", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middlewares.APIKeyHeader, "lat_revoked")
		w := serve(t, req, "/", whoami, mw)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong prefix never reaches the store", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middlewares.APIKeyHeader, "sk_live_123")
		w := serve(t, req, "/", whoami, mw)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthWithoutAPIKeyStore(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middlewares.APIKeyHeader, "lat_anything")
	w := serve(t, req, "/", whoami, middlewares.Auth(middlewares.AuthConfig{Secret: testSecret}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	t.Parallel()

	mw := middlewares.Auth(middlewares.AuthConfig{Secret: testSecret}, middlewares.OptionalAuth())

	t.Run("anonymous passes", func(t *testing.T) {
		t.Parallel()

		w := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), "/", whoami, mw)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "|", w.Body.String())
	})

	t.Run("bad token still fails", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer broken")
		w := serve(t, req, "/", whoami, mw)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("require user on a route", func(t *testing.T) {
		t.Parallel()

		app := internal.New(
			internal.WithMiddleware(mw),
			internal.WithHandlers(routes(func(r internal.Router) {
				r.GET("/open", whoami)
				r.GET("/closed", whoami, middlewares.RequireUser())
			})),
		)

		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/closed", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUserIDExtractor(t *testing.T) {
	t.Parallel()

	ext := middlewares.UserIDExtractor()
	_, ok := ext(context.Background())
	assert.False(t, ok)

	attr, ok := ext(context.WithValue(context.Background(), internal.UserIDKey{}, "u1"))
	require.True(t, ok)
	assert.Equal(t, "u1", attr.Value.String())
}
