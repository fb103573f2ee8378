package oauth

import "net/http"

// Option configures a provider.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient sets the client used for the token exchange.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}
