package internal

import (
	"errors"
	"net/http"
)

// HTTPError is an error that carries its HTTP status. Handlers return one to
// control the response; anything else becomes a 500.
type HTTPError struct {
	// Err is the cause. It is logged, never sent to the client.
	Err error

	// Message is safe to show to the user.
	Message string

	// Detail is an optional longer explanation.
	Detail string

	// ErrorCode is a stable machine-readable code, e.g. "transcript_not_ready".
	ErrorCode string

	// RequestID is filled in by the error handler when known.
	RequestID string

	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// StatusText returns the standard text for Code.
func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates an HTTPError. An empty message defaults to the
// status text.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	if message == "" {
		message = http.StatusText(code)
	}
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithDetail(detail string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Detail = detail
	}
}

func WithErrorCode(code string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.ErrorCode = code
	}
}

func WithRequestID(id string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.RequestID = id
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusConflict, message, opts...)
}

func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnprocessableEntity, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

func ErrServiceUnavailable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusServiceUnavailable, message, opts...)
}

// IsHTTPError reports whether err wraps an *HTTPError.
func IsHTTPError(err error) bool {
	return AsHTTPError(err) != nil
}

// AsHTTPError returns the first *HTTPError in err's chain, or nil.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}

// errorBody is the JSON shape of every API error.
type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Status    int    `json:"status"`
}

// DefaultErrorHandler renders err as {"error": {...}}. Errors that are not
// an *HTTPError are logged and reported as a generic 500.
func DefaultErrorHandler(c Context, err error) error {
	httpErr := AsHTTPError(err)
	if httpErr == nil {
		c.LogError("request failed", "error", err)
		httpErr = ErrInternal("")
	} else if httpErr.Code >= http.StatusInternalServerError {
		c.LogError("request failed", "error", err, "cause", httpErr.Err)
	}

	return c.JSON(httpErr.Code, errorBody{Error: errorPayload{
		Message:   httpErr.Message,
		Code:      httpErr.ErrorCode,
		Detail:    httpErr.Detail,
		RequestID: httpErr.RequestID,
		Status:    httpErr.Code,
	}})
}
