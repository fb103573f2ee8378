// Package locale decides which UI locale a request is served in.
//
// A Config holds the supported locale set and the default, built once at
// startup and passed to whoever negotiates. Negotiation only looks at the
// primary subtag of the first Accept-Language entry; it never fails and
// always returns a supported locale.
package locale

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// Locales served out of the box.
const (
	English = "en"
	Chinese = "zh"
)

// Config is the process-wide locale configuration. The zero value is not
// usable; build one with New or Default. A Config is never mutated after
// construction and is safe to share between goroutines.
type Config struct {
	supported     map[string]struct{}
	defaultLocale string
}

// New builds a Config. The default locale must be one of supported.
// Tags are matched case-sensitively, so they are stored exactly as given.
func New(defaultLocale string, supported ...string) (Config, error) {
	if len(supported) == 0 {
		return Config{}, ErrNoLocales
	}

	set := make(map[string]struct{}, len(supported))
	for _, tag := range supported {
		if tag == "" || strings.ContainsAny(tag, ",-; ") {
			return Config{}, errors.Join(ErrInvalidLocale, fmt.Errorf("tag %q", tag))
		}
		if _, err := language.Parse(tag); err != nil {
			return Config{}, errors.Join(ErrInvalidLocale, fmt.Errorf("tag %q: %w", tag, err))
		}
		set[tag] = struct{}{}
	}

	if _, ok := set[defaultLocale]; !ok {
		return Config{}, errors.Join(ErrDefaultNotSupported, fmt.Errorf("default %q", defaultLocale))
	}

	return Config{supported: set, defaultLocale: defaultLocale}, nil
}

// MustNew is like New but panics on error. Intended for package-level
// configuration in tests and main.
func MustNew(defaultLocale string, supported ...string) Config {
	cfg, err := New(defaultLocale, supported...)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Default returns the stock configuration: en and zh, defaulting to en.
func Default() Config {
	return MustNew(English, English, Chinese)
}

// DefaultLocale returns the fallback locale.
func (c Config) DefaultLocale() string {
	return c.defaultLocale
}

// Supported returns the supported locales in sorted order.
func (c Config) Supported() []string {
	out := make([]string, 0, len(c.supported))
	for tag := range c.supported {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// IsSupported reports whether tag is a supported locale. Matching is exact.
func (c Config) IsSupported(tag string) bool {
	_, ok := c.supported[tag]
	return ok
}
