package internal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tonyc-ship/latios-oss-sub001/pkg/i18n"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/job"
)

// MaxBodySize caps request bodies read by Bind.
const MaxBodySize = 1 << 20

var (
	ErrEmptyBody            = errors.New("request body is empty")
	ErrJobsNotConfigured    = errors.New("background jobs are not configured")
	ErrCookiesNotConfigured = errors.New("signed cookies are not configured")
)

// LocaleKey holds the negotiated locale string.
type LocaleKey struct{}

// TranslatorKey holds the *i18n.Translator bound to the negotiated locale.
type TranslatorKey struct{}

// UserIDKey holds the authenticated user's id.
type UserIDKey struct{}

// RequestIDKey holds the request id.
type RequestIDKey struct{}

// Component is anything that renders HTML. templ.Component satisfies it.
type Component interface {
	Render(ctx context.Context, w io.Writer) error
}

// Enqueuer inserts background jobs. *job.Manager implements it.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload any, opts ...job.EnqueueOption) (int64, error)
}

// Context is the per-request handle passed to handlers and middleware.
// It is also a context.Context backed by the request's context.
type Context interface {
	context.Context

	Request() *http.Request
	Response() http.ResponseWriter

	// Param returns a chi URL parameter.
	Param(name string) string
	Query(name string) string
	QueryDefault(name, defaultValue string) string
	Header(name string) string
	SetHeader(name, value string)

	// Bind decodes a JSON body of at most MaxBodySize bytes into v.
	// Decoding failures are returned as a 400 HTTPError.
	Bind(v any) error

	JSON(code int, v any) error
	String(code int, s string) error
	NoContent(code int) error
	Redirect(code int, url string) error
	Render(code int, component Component) error

	// Error builds an HTTPError for returning from a handler.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// Written reports whether the response header was sent.
	Written() bool

	Logger() *slog.Logger
	LogDebug(msg string, attrs ...any)
	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	// Set stores a value on the request context; Get reads it back.
	Set(key, value any)
	Get(key any) any

	// Locale returns the negotiated locale, or "" on exempt paths.
	Locale() string
	// T translates key with the negotiated translator. Without one the key
	// is returned as is.
	T(key string, placeholders ...i18n.M) string
	Tn(key string, n int, placeholders ...i18n.M) string
	Translator() *i18n.Translator

	// UserID returns the authenticated user's id or "".
	UserID() string
	RequestID() string

	Cookie(name string) (string, error)
	CookieSigned(name string) (string, error)
	SetCookieSigned(name, value string, ttl time.Duration) error
	DeleteCookie(name string)

	// Enqueue schedules a background task and returns its job id.
	Enqueue(name string, payload any, opts ...job.EnqueueOption) (int64, error)
}

type requestContext struct {
	request  *http.Request
	response *ResponseWriter
	app      *App
}

func (a *App) newContext(w http.ResponseWriter, r *http.Request) *requestContext {
	return &requestContext{
		request:  r,
		response: NewResponseWriter(w),
		app:      a,
	}
}

func (c *requestContext) Request() *http.Request        { return c.request }
func (c *requestContext) Response() http.ResponseWriter { return c.response }

func (c *requestContext) Deadline() (time.Time, bool) { return c.request.Context().Deadline() }
func (c *requestContext) Done() <-chan struct{}       { return c.request.Context().Done() }
func (c *requestContext) Err() error                  { return c.request.Context().Err() }
func (c *requestContext) Value(key any) any           { return c.request.Context().Value(key) }

func (c *requestContext) Param(name string) string {
	return chi.URLParam(c.request, name)
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) QueryDefault(name, defaultValue string) string {
	if v := c.request.URL.Query().Get(name); v != "" {
		return v
	}
	return defaultValue
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.response.Header().Set(name, value)
}

func (c *requestContext) Bind(v any) error {
	if c.request.Body == nil || c.request.Body == http.NoBody {
		return ErrBadRequest(ErrEmptyBody.Error(), WithError(ErrEmptyBody), WithErrorCode("invalid_body"))
	}

	body := http.MaxBytesReader(c.response, c.request.Body, MaxBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			err = ErrEmptyBody
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return NewHTTPError(http.StatusRequestEntityTooLarge, "", WithError(err))
		}
		return ErrBadRequest("invalid JSON body", WithError(err), WithErrorCode("invalid_body"), WithDetail(err.Error()))
	}
	return nil
}

func (c *requestContext) JSON(code int, v any) error {
	c.response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.response.WriteHeader(code)
	return json.NewEncoder(c.response).Encode(v)
}

func (c *requestContext) String(code int, s string) error {
	c.response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.response.WriteHeader(code)
	_, err := io.WriteString(c.response, s)
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.response.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	http.Redirect(c.response, c.request, url, code)
	return nil
}

func (c *requestContext) Render(code int, component Component) error {
	c.response.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.response.WriteHeader(code)
	return component.Render(c.request.Context(), c.response)
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(code, message, opts...)
}

func (c *requestContext) Written() bool {
	return c.response.Written()
}

func (c *requestContext) Logger() *slog.Logger {
	return c.app.logger
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.app.logger.DebugContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.app.logger.InfoContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.app.logger.WarnContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.app.logger.ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	c.request = c.request.WithContext(context.WithValue(c.request.Context(), key, value))
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Locale() string {
	return ContextValue[string](c, LocaleKey{})
}

func (c *requestContext) Translator() *i18n.Translator {
	return ContextValue[*i18n.Translator](c, TranslatorKey{})
}

func (c *requestContext) T(key string, placeholders ...i18n.M) string {
	if tr := c.Translator(); tr != nil {
		return tr.T(key, placeholders...)
	}
	return key
}

func (c *requestContext) Tn(key string, n int, placeholders ...i18n.M) string {
	if tr := c.Translator(); tr != nil {
		return tr.Tn(key, n, placeholders...)
	}
	return key
}

func (c *requestContext) UserID() string {
	return ContextValue[string](c, UserIDKey{})
}

func (c *requestContext) RequestID() string {
	return ContextValue[string](c, RequestIDKey{})
}

func (c *requestContext) Cookie(name string) (string, error) {
	ck, err := c.request.Cookie(name)
	if err != nil {
		return "", err
	}
	return ck.Value, nil
}

func (c *requestContext) CookieSigned(name string) (string, error) {
	if c.app.cookies == nil {
		return "", ErrCookiesNotConfigured
	}
	return c.app.cookies.GetSigned(c.request, name)
}

func (c *requestContext) SetCookieSigned(name, value string, ttl time.Duration) error {
	if c.app.cookies == nil {
		return ErrCookiesNotConfigured
	}
	c.app.cookies.SetSigned(c.response, name, value, ttl)
	return nil
}

func (c *requestContext) DeleteCookie(name string) {
	if c.app.cookies != nil {
		c.app.cookies.Delete(c.response, name)
		return
	}
	http.SetCookie(c.response, &http.Cookie{Name: name, Path: "/", MaxAge: -1})
}

func (c *requestContext) Enqueue(name string, payload any, opts ...job.EnqueueOption) (int64, error) {
	if c.app.enqueuer == nil {
		return 0, ErrJobsNotConfigured
	}
	return c.app.enqueuer.Enqueue(c.request.Context(), name, payload, opts...)
}
