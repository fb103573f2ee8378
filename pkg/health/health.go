// Package health serves liveness and readiness probes. Readiness runs the
// registered dependency checks (Postgres, Redis, job queue) concurrently
// under a shared timeout.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc reports a dependency failure as a non-nil error.
type CheckFunc func(ctx context.Context) error

// Report is the readiness result.
type Report struct {
	Checks map[string]Result `json:"checks,omitempty"`
	Status string            `json:"status"`
}

// Result is the outcome of a single check.
type Result struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Checker runs a fixed set of checks.
type Checker struct {
	checks  map[string]CheckFunc
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout bounds a whole readiness run. Default 5s.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger logs failed checks at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a checker. Nil checks are dropped.
func New(checks map[string]CheckFunc, opts ...Option) *Checker {
	c := &Checker{
		checks:  make(map[string]CheckFunc, len(checks)),
		logger:  slog.New(slog.DiscardHandler),
		timeout: 5 * time.Second,
	}
	for name, fn := range checks {
		if fn != nil {
			c.checks[name] = fn
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes every check and aggregates the results.
func (c *Checker) Run(ctx context.Context) Report {
	if len(c.checks) == 0 {
		return Report{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		g       errgroup.Group
		results = make(map[string]Result, len(c.checks))
	)
	for name, check := range c.checks {
		g.Go(func() error {
			res := Result{Status: StatusHealthy}
			if err := check(ctx); err != nil {
				res = Result{Status: StatusUnhealthy, Error: err.Error()}
				c.logger.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Status: StatusHealthy, Checks: results}
	for _, r := range results {
		if r.Status != StatusHealthy {
			report.Status = StatusUnhealthy
			break
		}
	}
	return report
}

// LiveHandler always answers 200 while the process is serving.
func LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		write(w, r, http.StatusOK, Report{Status: StatusHealthy})
	}
}

// ReadyHandler answers 200 when every check passes and 503 otherwise.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := c.Run(r.Context())
		code := http.StatusOK
		if report.Status != StatusHealthy {
			code = http.StatusServiceUnavailable
		}
		write(w, r, code, report)
	}
}

func write(w http.ResponseWriter, r *http.Request, code int, report Report) {
	if r.URL.Query().Get("format") == "json" || strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(report)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if code == http.StatusOK {
		_, _ = w.Write([]byte("OK"))
		return
	}
	_, _ = w.Write([]byte("Service Unavailable"))
}
