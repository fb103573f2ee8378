package i18n

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

const formOther = "other"

// pluralForm maps n to its CLDR cardinal category for tag.
func pluralForm(tag language.Tag, n int) string {
	if n < 0 {
		n = -n
	}
	switch plural.Cardinal.MatchPlural(tag, n, 0, 0, 0, 0) {
	case plural.Zero:
		return "zero"
	case plural.One:
		return "one"
	case plural.Two:
		return "two"
	case plural.Few:
		return "few"
	case plural.Many:
		return "many"
	default:
		return formOther
	}
}
