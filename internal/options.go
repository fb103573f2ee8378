package internal

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tonyc-ship/latios-oss-sub001/pkg/cookie"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/health"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/job"
)

// Option configures the application.
type Option func(*App)

// WithMiddleware adds global middleware, applied in the order given.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHandlers registers route groups.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithStaticFiles serves fsys/subDir under pattern. Directory listings are
// disabled.
//
//	internal.WithStaticFiles("/static/", assets.FS, "public")
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return func(a *App) {
		sub, err := fs.Sub(fsys, subDir)
		if err != nil {
			panic(err)
		}
		files := http.StripPrefix(strings.TrimSuffix(pattern, "/"), http.FileServerFS(sub))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Cache-Control", "public, max-age=3600")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			files.ServeHTTP(w, r)
		})

		a.staticRoutes = append(a.staticRoutes, staticRoute{handler: handler, pattern: pattern})
	}
}

// WithHTTPHandler routes pattern to a plain http.Handler that bypasses the
// app's middleware Context, e.g. promhttp on /metrics.
func WithHTTPHandler(pattern string, h http.Handler) Option {
	return func(a *App) {
		a.extraMounts = append(a.extraMounts, mount{handler: h, pattern: pattern})
	}
}

// WithErrorHandler replaces DefaultErrorHandler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		if h != nil {
			a.errorHandler = h
		}
	}
}

// WithNotFoundHandler sets the 404 handler.
func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.notFoundHandler = h
	}
}

// WithHealth serves LivenessPath and ReadinessPath backed by c.
func WithHealth(c *health.Checker) Option {
	return func(a *App) {
		a.health = c
	}
}

// WithLogger sets the logger used by Context logging helpers.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithCookies enables the signed-cookie helpers on Context.
func WithCookies(m *cookie.Manager) Option {
	return func(a *App) {
		a.cookies = m
	}
}

// WithJobs wires c.Enqueue to m and ties m's lifecycle to Run.
func WithJobs(m *job.Manager) Option {
	return func(a *App) {
		if m != nil {
			a.jobs = m
			a.enqueuer = m
		}
	}
}

// WithEnqueuer wires c.Enqueue without managing any worker lifecycle.
func WithEnqueuer(e Enqueuer) Option {
	return func(a *App) {
		a.enqueuer = e
	}
}
