// Package views holds the server-rendered pages, translations and email
// templates of the web service.
package views

import (
	"embed"
	"io/fs"

	"github.com/tonyc-ship/latios-oss-sub001/pkg/i18n"
)

//go:embed locales
var localesFS embed.FS

//go:embed emails
var emailsFS embed.FS

// Assets holds the stylesheet under static/.
//
//go:embed static
var Assets embed.FS

// DefaultLocale is used when a message is missing in the requested locale.
const DefaultLocale = "en"

// Locales returns the translation files laid out as {locale}/{namespace}.yaml.
func Locales() fs.FS {
	sub, err := fs.Sub(localesFS, "locales")
	if err != nil {
		panic(err)
	}
	return sub
}

// Emails returns the email templates: layouts/base.html and
// {locale}/{name}.md.
func Emails() fs.FS {
	sub, err := fs.Sub(emailsFS, "emails")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewCatalog loads the embedded translations.
func NewCatalog(opts ...i18n.Option) (*i18n.Catalog, error) {
	return i18n.New(append([]i18n.Option{
		i18n.WithDefaultLocale(DefaultLocale),
		i18n.WithYAMLFS(Locales()),
	}, opts...)...)
}
