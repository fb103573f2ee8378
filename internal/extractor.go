package internal

import "strings"

// ExtractorSource reads one candidate value from a request. It reports
// false when the value is absent.
type ExtractorSource = func(Context) (string, bool)

// Extractor tries its sources in order.
type Extractor struct {
	sources []ExtractorSource
}

// NewExtractor creates an Extractor over sources.
func NewExtractor(sources ...ExtractorSource) Extractor {
	return Extractor{sources: sources}
}

// Extract returns the first non-empty value.
func (e Extractor) Extract(c Context) (string, bool) {
	for _, src := range e.sources {
		if v, ok := src(c); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// FromFirst folds several sources into one, so chains can be nested:
//
//	FromFirst(FromBearerToken(), FromCookie("sb-access-token"))
func FromFirst(sources ...ExtractorSource) ExtractorSource {
	return NewExtractor(sources...).Extract
}

func FromHeader(name string) ExtractorSource {
	return func(c Context) (string, bool) {
		v := strings.TrimSpace(c.Header(name))
		return v, v != ""
	}
}

func FromQuery(name string) ExtractorSource {
	return func(c Context) (string, bool) {
		v := c.Query(name)
		return v, v != ""
	}
}

func FromCookie(name string) ExtractorSource {
	return func(c Context) (string, bool) {
		v, err := c.Cookie(name)
		if err != nil {
			return "", false
		}
		return v, v != ""
	}
}

// FromBearerToken reads "Authorization: Bearer <token>". The scheme is
// matched case-insensitively.
func FromBearerToken() ExtractorSource {
	return func(c Context) (string, bool) {
		scheme, token, ok := strings.Cut(c.Header("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			return "", false
		}
		token = strings.TrimSpace(token)
		return token, token != ""
	}
}
