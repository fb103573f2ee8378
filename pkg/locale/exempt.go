package locale

import "strings"

// Path prefixes that are never negotiated.
const (
	APIPrefix    = "/api"
	AssetsPrefix = "/_next"
	StaticPrefix = "/static"
)

// Rule reports whether a path is exempt from negotiation.
type Rule func(path string) bool

// HasPrefix exempts paths beginning with prefix.
func HasPrefix(prefix string) Rule {
	return func(path string) bool {
		return strings.HasPrefix(path, prefix)
	}
}

// ContainsDot exempts any path holding a '.', which catches files with an
// extension such as /favicon.ico. Page routes with a dot are exempt too.
func ContainsDot() Rule {
	return func(path string) bool {
		return strings.Contains(path, ".")
	}
}

// Exclusions is an ordered rule list; the first matching rule wins.
type Exclusions []Rule

// DefaultExclusions returns the API, asset and dot rules, in that order.
func DefaultExclusions() Exclusions {
	return Exclusions{
		HasPrefix(APIPrefix),
		HasPrefix(AssetsPrefix),
		HasPrefix(StaticPrefix),
		ContainsDot(),
	}
}

// Exempt reports whether any rule matches path. Empty paths and paths
// without a leading slash fall through to negotiation unless a rule
// matches them.
func (e Exclusions) Exempt(path string) bool {
	for _, rule := range e {
		if rule != nil && rule(path) {
			return true
		}
	}
	return false
}
