package middlewares

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
)

// CORSConfig is loaded with the CORS_ prefix. The browser extension and the
// desktop app call /api from their own origins.
type CORSConfig struct {
	AllowOrigins     []string      `env:"ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`
	AllowMethods     []string      `env:"ALLOW_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `env:"ALLOW_HEADERS" envSeparator:"," envDefault:"Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID"`
	ExposeHeaders    []string      `env:"EXPOSE_HEADERS" envSeparator:"," envDefault:"X-Request-ID,X-Locale"`
	AllowCredentials bool          `env:"ALLOW_CREDENTIALS" envDefault:"false"`
	MaxAge           time.Duration `env:"MAX_AGE" envDefault:"12h"`
}

// CORS answers preflight requests and decorates cross-origin responses.
// Disallowed origins pass through without CORS headers and the browser
// blocks them.
func CORS(cfg CORSConfig) internal.Middleware {
	allowAll := slices.Contains(cfg.AllowOrigins, "*")
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	expose := strings.Join(cfg.ExposeHeaders, ", ")
	maxAge := strconv.Itoa(int(cfg.MaxAge.Seconds()))

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			origin := c.Header("Origin")
			if origin == "" || !(allowAll || slices.Contains(cfg.AllowOrigins, origin)) {
				return next(c)
			}

			h := c.Response().Header()
			h.Add("Vary", "Origin")
			// A wildcard cannot be combined with credentials.
			if cfg.AllowCredentials || !allowAll {
				h.Set("Access-Control-Allow-Origin", origin)
			} else {
				h.Set("Access-Control-Allow-Origin", "*")
			}
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if expose != "" {
				h.Set("Access-Control-Expose-Headers", expose)
			}

			if c.Request().Method != http.MethodOptions || c.Header("Access-Control-Request-Method") == "" {
				return next(c)
			}

			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			return c.NoContent(http.StatusNoContent)
		}
	}
}
