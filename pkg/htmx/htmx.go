// Package htmx reads the request headers htmx sends and sets the response
// headers it understands. The search page uses it to swap only the result
// list while the user types.
package htmx

import "net/http"

// Request headers.
const (
	HeaderRequest = "HX-Request"
	HeaderBoosted = "HX-Boosted"
)

// HeaderPushURL is the response header that updates the browser history.
const HeaderPushURL = "HX-Push-Url"

// IsHTMX reports whether r was sent by htmx.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get(HeaderRequest) == "true"
}

// IsPartial reports whether r wants a fragment rather than a full page.
// Boosted requests replace the whole body and get the full page.
func IsPartial(r *http.Request) bool {
	return IsHTMX(r) && r.Header.Get(HeaderBoosted) != "true"
}

// PushURL makes htmx push url onto the browser history.
func PushURL(w http.ResponseWriter, url string) {
	w.Header().Set(HeaderPushURL, url)
}
