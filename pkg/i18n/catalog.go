// Package i18n holds the UI message catalog.
//
// Messages are addressed by locale, namespace and a dotted key. Lookups fall
// back to the default locale and finally to the key itself, so a missing
// translation never breaks a page:
//
//	cat, _ := i18n.New(i18n.WithDefaultLocale("en"), i18n.WithYAMLFS(locales.FS))
//	t := cat.Translator("zh", "home")
//	t.T("title")                              // "播客搜索"
//	t.Tn("episodes", 3)                       // "3 集"
//	t.T("greeting", i18n.M{"name": "Ada"})    // "你好, Ada"
package i18n

import (
	"fmt"
	"maps"
	"slices"

	"golang.org/x/text/language"
)

// DefaultLocale is used when no WithDefaultLocale option is given.
const DefaultLocale = "en"

// M holds placeholder values for {{name}} substitution.
type M map[string]any

// Catalog is an immutable message store. It is safe for concurrent use.
type Catalog struct {
	messages      map[string]string
	tags          map[string]language.Tag
	onMissing     func(locale, namespace, key string)
	defaultLocale string
}

// Option configures a Catalog during New.
type Option func(*Catalog) error

// New builds a catalog from options.
func New(opts ...Option) (*Catalog, error) {
	c := &Catalog{
		messages:      make(map[string]string),
		tags:          make(map[string]language.Tag),
		defaultLocale: DefaultLocale,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("i18n: apply option: %w", err)
		}
	}

	if err := c.register(c.defaultLocale); err != nil {
		return nil, err
	}

	return c, nil
}

// WithDefaultLocale sets the fallback locale.
func WithDefaultLocale(locale string) Option {
	return func(c *Catalog) error {
		if locale == "" {
			return ErrEmptyLocale
		}
		c.defaultLocale = locale
		return nil
	}
}

// WithMessages adds messages for one locale and namespace. Nested maps are
// flattened into dotted keys.
func WithMessages(locale, namespace string, messages map[string]any) Option {
	return func(c *Catalog) error {
		return c.add(locale, namespace, messages)
	}
}

// WithMissingKeyHandler registers a callback for lookups that fall through
// to the key itself. Useful for logging untranslated strings.
func WithMissingKeyHandler(fn func(locale, namespace, key string)) Option {
	return func(c *Catalog) error {
		c.onMissing = fn
		return nil
	}
}

// T returns the message for key, substituting placeholders.
func (c *Catalog) T(locale, namespace, key string, placeholders ...M) string {
	if msg, ok := c.lookup(locale, namespace, key); ok {
		return Replace(msg, placeholders...)
	}
	c.missing(locale, namespace, key)
	return key
}

// Tn returns the plural form of key for n. Forms are stored as
// key.zero, key.one, key.two, key.few, key.many and key.other, chosen by
// the CLDR cardinal rules of the locale. key.other is the last resort.
// The count placeholder is always set to n.
func (c *Catalog) Tn(locale, namespace, key string, n int, placeholders ...M) string {
	vars := M{"count": n}
	for _, p := range placeholders {
		maps.Copy(vars, p)
	}

	form := pluralForm(c.tag(locale), n)
	for _, k := range []string{key + "." + form, key + "." + formOther} {
		if msg, ok := c.lookup(locale, namespace, k); ok {
			return Replace(msg, vars)
		}
	}
	c.missing(locale, namespace, key)
	return key
}

// Translator binds the catalog to a locale and namespace.
func (c *Catalog) Translator(locale, namespace string) *Translator {
	if locale == "" {
		locale = c.defaultLocale
	}
	return &Translator{catalog: c, locale: locale, namespace: namespace}
}

// DefaultLocale returns the fallback locale.
func (c *Catalog) DefaultLocale() string {
	return c.defaultLocale
}

// Locales returns every locale that has messages, sorted.
func (c *Catalog) Locales() []string {
	return slices.Sorted(maps.Keys(c.tags))
}

// Has reports whether key exists for the exact locale without fallback.
func (c *Catalog) Has(locale, namespace, key string) bool {
	_, ok := c.messages[compositeKey(locale, namespace, key)]
	return ok
}

func (c *Catalog) lookup(locale, namespace, key string) (string, bool) {
	if msg, ok := c.messages[compositeKey(locale, namespace, key)]; ok {
		return msg, true
	}
	if locale != c.defaultLocale {
		if msg, ok := c.messages[compositeKey(c.defaultLocale, namespace, key)]; ok {
			return msg, true
		}
	}
	return "", false
}

func (c *Catalog) missing(locale, namespace, key string) {
	if c.onMissing != nil {
		c.onMissing(locale, namespace, key)
	}
}

func (c *Catalog) add(locale, namespace string, messages map[string]any) error {
	if locale == "" {
		return ErrEmptyLocale
	}
	if namespace == "" {
		return ErrEmptyNamespace
	}
	if err := c.register(locale); err != nil {
		return err
	}
	for k, v := range flatten(messages, "") {
		c.messages[compositeKey(locale, namespace, k)] = v
	}
	return nil
}

func (c *Catalog) register(locale string) error {
	if _, ok := c.tags[locale]; ok {
		return nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidLocale, locale, err)
	}
	c.tags[locale] = tag
	return nil
}

func (c *Catalog) tag(locale string) language.Tag {
	if tag, ok := c.tags[locale]; ok {
		return tag
	}
	return c.tags[c.defaultLocale]
}

func compositeKey(locale, namespace, key string) string {
	return locale + ":" + namespace + ":" + key
}

func flatten(data map[string]any, prefix string) map[string]string {
	out := make(map[string]string)
	for k, v := range data {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[full] = val
		case map[string]any:
			maps.Copy(out, flatten(val, full))
		case map[string]string:
			for sk, sv := range val {
				out[full+"."+sk] = sv
			}
		default:
			out[full] = fmt.Sprint(val)
		}
	}
	return out
}
