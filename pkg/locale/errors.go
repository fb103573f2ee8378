package locale

import "errors"

var (
	ErrNoLocales           = errors.New("locale: at least one supported locale is required")
	ErrInvalidLocale       = errors.New("locale: invalid locale tag")
	ErrDefaultNotSupported = errors.New("locale: default locale is not in the supported set")
)
