package i18n

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var dateLayouts = map[string]string{
	"en": "Jan 2, 2006",
	"zh": "2006年1月2日",
	"ja": "2006年1月2日",
	"de": "02.01.2006",
	"fr": "02/01/2006",
}

func formatNumber(tag language.Tag, n float64) string {
	return message.NewPrinter(tag).Sprint(number.Decimal(n, number.MaxFractionDigits(2)))
}

func formatDate(locale string, d time.Time) string {
	layout, ok := dateLayouts[locale]
	if !ok {
		layout = time.DateOnly
	}
	return d.Format(layout)
}
