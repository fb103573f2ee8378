package i18n

import "time"

// Translator is a catalog bound to one locale and namespace. Its T method
// is what templates and handlers call as t(key).
type Translator struct {
	catalog   *Catalog
	locale    string
	namespace string
}

// T translates key in the bound locale and namespace.
func (t *Translator) T(key string, placeholders ...M) string {
	return t.catalog.T(t.locale, t.namespace, key, placeholders...)
}

// Tn translates key with plural selection for n.
func (t *Translator) Tn(key string, n int, placeholders ...M) string {
	return t.catalog.Tn(t.locale, t.namespace, key, n, placeholders...)
}

// Namespace returns a translator for another namespace in the same locale.
func (t *Translator) Namespace(namespace string) *Translator {
	return &Translator{catalog: t.catalog, locale: t.locale, namespace: namespace}
}

// Locale returns the bound locale.
func (t *Translator) Locale() string { return t.locale }

// FormatNumber formats n with the locale's digit grouping.
func (t *Translator) FormatNumber(n float64) string {
	return formatNumber(t.catalog.tag(t.locale), n)
}

// FormatDate formats d with the locale's date layout.
func (t *Translator) FormatDate(d time.Time) string {
	return formatDate(t.locale, d)
}

// FormatDuration renders a duration as hours and minutes using the
// duration.hours_minutes and duration.minutes keys of the "common"
// namespace.
func (t *Translator) FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	if h == 0 {
		return t.catalog.T(t.locale, "common", "duration.minutes", M{"m": m})
	}
	return t.catalog.T(t.locale, "common", "duration.hours_minutes", M{"h": h, "m": m})
}
