package id

import "time"

// NewULID returns a 26 character ULID: 48 bits of millisecond time followed
// by 80 random bits. ULIDs sort lexicographically by creation time.
func NewULID() string {
	return ulidAt(time.Now())
}

func ulidAt(t time.Time) string {
	var b [16]byte
	ms := uint64(t.UnixMilli())
	for i := range 6 {
		b[i] = byte(ms >> (40 - 8*i))
	}
	random(b[6:])
	return encode(b[:], 26)
}
