package internal

// Handler declares a group of routes.
//
//	type SearchHandler struct {
//	    itunes *itunes.CachedClient
//	}
//
//	func (h *SearchHandler) Routes(r internal.Router) {
//	    r.GET("/api/search", h.search)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc handles a request. A returned error is passed to the app's
// ErrorHandler unless the response was already written.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc.
//
//	func RequireUser(next internal.HandlerFunc) internal.HandlerFunc {
//	    return func(c internal.Context) error {
//	        if c.UserID() == "" {
//	            return internal.ErrUnauthorized("")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler renders an error returned by a handler.
type ErrorHandler func(Context, error) error
