// Package internal is the web kernel of the latios service: a chi router
// behind a small Context interface, JSON error rendering, health endpoints
// and graceful shutdown.
//
// Handlers are types with a Routes method and receive their dependencies
// through constructors:
//
//	type SummaryHandler struct {
//	    store *store.Store
//	}
//
//	func (h *SummaryHandler) Routes(r internal.Router) {
//	    r.GET("/api/summaries/{episode}", h.get)
//	}
//
// Context embeds context.Context, so it can be passed straight to database
// and HTTP client calls. Values set by middleware (negotiated locale,
// translator, user id, request id) live on the request context under the
// exported key types and are read through Context helpers:
//
//	func (h *SummaryHandler) get(c internal.Context) error {
//	    sum, err := h.store.GetSummary(c, c.Param("episode"), c.Locale())
//	    if errors.Is(err, store.ErrNotFound) {
//	        return internal.ErrNotFound(c.T("errors.summary_not_found"))
//	    }
//	    ...
//	}
//
// Returning an *HTTPError controls the status code; any other error is
// logged and rendered as a 500 by DefaultErrorHandler.
package internal
