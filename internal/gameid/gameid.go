// Package gameid generates sortable table identifiers: UUIDv7 encoded as a
// 26-character Crockford base32 string, so IDs created later sort later and
// read cleanly in logs and URLs.
package gameid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// Crockford's base32: no i, l, o or u.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// New returns a fresh game ID.
func New() string {
	var id [16]byte

	// UUIDv7: 48-bit millisecond timestamp, then random, with the version
	// and variant bits pinned.
	now := time.Now().UnixMilli()
	id[0] = byte(now >> 40)
	id[1] = byte(now >> 32)
	id[2] = byte(now >> 24)
	id[3] = byte(now >> 16)
	id[4] = byte(now >> 8)
	id[5] = byte(now)

	if _, err := rand.Read(id[6:]); err != nil {
		panic("gameid: " + err.Error())
	}
	id[6] = (id[6] & 0x0f) | 0x70
	id[8] = (id[8] & 0x3f) | 0x80

	return encode(id)
}

// encode packs 128 bits into 26 base32 characters, five bits at a time. The
// final character carries two bits of padding.
func encode(id [16]byte) string {
	var b strings.Builder
	b.Grow(26)
	for i := 0; i < 26; i++ {
		offset := i * 5
		byteIdx, bitIdx := offset/8, offset%8

		var v byte
		if bitIdx <= 3 {
			v = (id[byteIdx] >> (3 - bitIdx)) & 0x1f
		} else {
			v = (id[byteIdx] << (bitIdx - 3)) & 0x1f
			if byteIdx+1 < 16 {
				v |= id[byteIdx+1] >> (11 - bitIdx)
			}
		}
		b.WriteByte(alphabet[v])
	}
	return b.String()
}

// Validate reports whether id is a well-formed game ID.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("game ID must be 26 characters, got %d", len(id))
	}
	// The leading character encodes the top bits of a 128-bit value padded
	// to 130, so it cannot exceed '7'.
	if id[0] > '7' {
		return fmt.Errorf("game ID first character out of range: %c", id[0])
	}
	for i, c := range id {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}
