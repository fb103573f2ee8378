// Package id generates identifiers: time-sortable ULIDs for request and
// row ids, and random prefixed tokens for API key secrets.
package id

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Crockford base32 without I, L, O and U.
const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// encode writes src as base32 using exactly n characters, most significant
// bits first. Leading bits beyond len(src)*8 are zero.
func encode(src []byte, n int) string {
	out := make([]byte, n)
	total := len(src) * 8
	for i := n - 1; i >= 0; i-- {
		bit := total - (n-i)*5 // position of the group's lowest bit from the top
		var v byte
		for b := range 5 {
			pos := bit + 4 - b
			if pos < 0 || pos >= total {
				continue
			}
			if src[pos/8]&(0x80>>(pos%8)) != 0 {
				v |= 1 << b
			}
		}
		out[i] = alphabet[v]
	}
	return string(out)
}

// random fills b from crypto/rand, falling back to clock entropy.
func random(b []byte) {
	if _, err := rand.Read(b); err != nil {
		for i := 0; i < len(b); i += 8 {
			var chunk [8]byte
			binary.BigEndian.PutUint64(chunk[:], uint64(time.Now().UnixNano()))
			copy(b[i:], chunk[:])
		}
	}
}
