// Package middlewares holds the request pipeline of the latios web service.
//
// The order used by cmd/latios is:
//
//	internal.WithMiddleware(
//	    middlewares.RequestID(),
//	    middlewares.Recover(),
//	    middlewares.CORS(cfg.CORS),
//	    middlewares.Locale(cfg.Locale, middlewares.WithCatalog(catalog)),
//	    middlewares.RequestLogger(internal.LivenessPath, internal.ReadinessPath),
//	    metrics.Middleware(),
//	)
//
// Locale runs before the logger and metrics so both can label requests
// with the negotiated locale.
//
// Locale negotiates the page locale from Accept-Language and exposes it as
// the X-Locale response header. API calls, framework assets and anything
// that looks like a file are passed through untouched.
//
// Auth is applied per route group, not globally:
//
//	r.Group(func(r internal.Router) {
//	    r.Use(middlewares.Auth(cfg.Auth, middlewares.WithAPIKeys(keys)))
//	    r.GET("/api/history", h.history)
//	})
//
// Recover and Timeout return *internal.HTTPError values whose cause is a
// *PanicError or *TimeoutError; AsPanicError and AsTimeoutError find them.
package middlewares
