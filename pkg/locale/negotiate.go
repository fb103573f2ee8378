package locale

import (
	"net/http"
	"strings"
)

// HeaderName is the request header negotiation reads.
const HeaderName = "Accept-Language"

// Negotiate returns the locale for an Accept-Language value.
//
// Only the first list entry is consulted and only up to its first hyphen:
// "zh-CN,zh;q=0.9,en;q=0.8" yields "zh". Quality values are ignored. If the
// resulting tag is not supported, or the header is empty or malformed, the
// default locale is returned. The result is always a supported locale.
func (c Config) Negotiate(header string) string {
	candidate := c.defaultLocale
	if header == "" {
		return candidate
	}

	tag, _, _ := strings.Cut(header, ",")
	tag, _, _ = strings.Cut(tag, "-")

	if c.IsSupported(tag) {
		candidate = tag
	}
	return candidate
}

// Resolve negotiates using the Accept-Language entry of h.
// A nil header map resolves to the default locale.
func (c Config) Resolve(h http.Header) string {
	if h == nil {
		return c.defaultLocale
	}
	return c.Negotiate(h.Get(HeaderName))
}
