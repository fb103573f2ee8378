package middlewares

import (
	"context"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/id"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/logger"
)

// RequestIDHeader is echoed on every response.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen caps ids taken from upstream headers.
const maxRequestIDLen = 128

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	Generator func() string
	Headers   []string // checked in order for an upstream id
}

// RequestIDOption configures RequestIDConfig.
type RequestIDOption func(*RequestIDConfig)

// WithRequestIDHeaders sets the headers checked for an upstream id.
func WithRequestIDHeaders(headers ...string) RequestIDOption {
	return func(cfg *RequestIDConfig) {
		cfg.Headers = headers
	}
}

// WithRequestIDGenerator replaces the ULID generator.
func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(cfg *RequestIDConfig) {
		if gen != nil {
			cfg.Generator = gen
		}
	}
}

// RequestID keeps an upstream request id (Vercel and most proxies send one)
// or generates a ULID, then stores it under internal.RequestIDKey and
// echoes it in X-Request-ID.
func RequestID(opts ...RequestIDOption) internal.Middleware {
	cfg := &RequestIDConfig{
		Generator: id.NewULID,
		Headers:   []string{"X-Request-ID", "X-Correlation-ID", "X-Vercel-Id"},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			var reqID string
			for _, h := range cfg.Headers {
				if v := c.Header(h); v != "" && len(v) <= maxRequestIDLen {
					reqID = v
					break
				}
			}
			if reqID == "" {
				reqID = cfg.Generator()
			}

			c.Set(internal.RequestIDKey{}, reqID)
			c.SetHeader(RequestIDHeader, reqID)
			return next(c)
		}
	}
}

// GetRequestID returns the request id on ctx, or "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(internal.RequestIDKey{}).(string)
	return v
}

// RequestIDExtractor adds "request_id" to every log record of a request.
func RequestIDExtractor() logger.ContextExtractor {
	return logger.FromContextKey(internal.RequestIDKey{}, "request_id")
}
