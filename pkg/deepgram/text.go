package deepgram

import (
	"strings"
	"unicode"
)

// punctuation that never takes a space before it.
const punctuation = "，。！？；：、,.!?;:"

func isFullWidthPunct(r rune) bool {
	return r > unicode.MaxASCII && strings.ContainsRune(punctuation, r)
}

// CleanChineseText removes the spaces Deepgram leaves between Chinese
// characters and around punctuation. Other runs of whitespace collapse to a
// single space, so mixed Chinese and English text keeps its word breaks.
func CleanChineseText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	pending := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			pending = true
			continue
		}
		if pending && prev != 0 {
			drop := strings.ContainsRune(punctuation, r) ||
				isFullWidthPunct(prev) ||
				(unicode.Is(unicode.Han, prev) && unicode.Is(unicode.Han, r))
			if !drop {
				b.WriteByte(' ')
			}
		}
		pending = false
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// cleanSegments applies CleanChineseText to every sentence in place.
func cleanSegments(segs []Segment) {
	for i := range segs {
		segs[i].FinalSentence = CleanChineseText(segs[i].FinalSentence)
	}
}
