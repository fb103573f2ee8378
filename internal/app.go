package internal

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tonyc-ship/latios-oss-sub001/pkg/cookie"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/health"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/job"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/logger"
)

// Server timeouts.
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 60 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20
	defaultShutdownTimeout   = 30 * time.Second
)

// Health endpoint paths.
const (
	LivenessPath  = "/health/live"
	ReadinessPath = "/health/ready"
)

// App owns the router and the lifecycle of the HTTP server and, when
// configured, the background job manager. It is immutable after New.
type App struct {
	router          chi.Router
	errorHandler    ErrorHandler
	notFoundHandler HandlerFunc
	health          *health.Checker
	logger          *slog.Logger
	cookies         *cookie.Manager
	enqueuer        Enqueuer
	jobs            *job.Manager
	middlewares     []Middleware
	handlers        []Handler
	staticRoutes    []staticRoute
	extraMounts     []mount
}

type staticRoute struct {
	handler http.Handler
	pattern string
}

type mount struct {
	handler http.Handler
	pattern string
}

// New builds the application and registers every route.
//
//	app := internal.New(
//	    internal.WithLogger(log),
//	    internal.WithMiddleware(middlewares.RequestID(), middlewares.Locale(cfg)),
//	    internal.WithHandlers(handlers.NewSearch(client, repo)),
//	    internal.WithHealth(checker),
//	)
func New(opts ...Option) *App {
	a := &App{
		router:       chi.NewRouter(),
		logger:       logger.NewNope(),
		errorHandler: DefaultErrorHandler,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.setupRoutes()
	return a
}

// Router exposes the chi router, mostly for tests.
func (a *App) Router() chi.Router {
	return a.router
}

// ServeHTTP makes App an http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Run serves on addr until SIGINT/SIGTERM. The job manager, if any, is
// started before listening and stopped after the server drains.
func (a *App) Run(addr string, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)
	if cfg.logger == nil {
		cfg.logger = a.logger
	}

	startup := cfg.startupHooks
	shutdown := cfg.shutdownHooks
	if a.jobs != nil {
		startup = append([]func(context.Context) error{a.jobs.Start}, startup...)
		shutdown = append([]func(context.Context) error{a.jobs.Stop}, shutdown...)
	}

	return runServer(runtimeConfig{
		handler:         a.router,
		address:         addr,
		logger:          cfg.logger,
		shutdownTimeout: cfg.shutdownTimeout,
		startupHooks:    startup,
		shutdownHooks:   shutdown,
		baseCtx:         cfg.baseCtx,
	})
}

func (a *App) setupRoutes() {
	if a.notFoundHandler != nil {
		a.router.NotFound(a.wrapHandler(a.notFoundHandler))
	}

	for _, mw := range a.middlewares {
		a.router.Use(a.adaptMiddleware(mw))
	}

	for _, sr := range a.staticRoutes {
		a.router.Mount(sr.pattern, sr.handler)
	}
	for _, m := range a.extraMounts {
		a.router.Handle(m.pattern, m.handler)
	}

	if a.health != nil {
		a.router.Get(LivenessPath, health.LiveHandler())
		a.router.Get(ReadinessPath, a.health.ReadyHandler())
	}

	r := &routerAdapter{router: a.router, app: a}
	for _, h := range a.handlers {
		h.Routes(r)
	}
}

func (a *App) wrapHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := a.newContext(w, r)
		if err := h(c); err != nil {
			a.handleError(c, err)
		}
	}
}

// handleError hands err to the error handler unless a response was sent.
func (a *App) handleError(c Context, err error) {
	if c.Written() {
		c.LogWarn("error after response was written", "error", err)
		return
	}
	if httpErr := AsHTTPError(err); httpErr != nil && httpErr.RequestID == "" {
		httpErr.RequestID = c.RequestID()
	}
	if herr := a.errorHandler(c, err); herr != nil {
		c.LogError("error handler failed", "error", herr)
	}
}
