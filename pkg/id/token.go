package id

import "strings"

// NewToken returns prefix followed by the lower-case base32 encoding of
// size random bytes. Used for secrets that are shown to a user once.
func NewToken(prefix string, size int) string {
	if size <= 0 {
		size = 20
	}
	b := make([]byte, size)
	random(b)
	return prefix + strings.ToLower(encode(b, (size*8+4)/5))
}
