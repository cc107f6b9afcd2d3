package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/binary"
	"strings"
)

// base32Alphabet is the RFC 4648 alphabet used by authenticator apps.
const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// pow10 holds 10^n for the digit counts a code may have.
var pow10 = [...]uint32{1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000, 1000000000}

// Base32Decode decodes a base32 secret leniently.
//
// Input is case-insensitive and any character outside the 32-symbol alphabet
// (padding, spaces, dashes, garbage) is skipped. Bits are packed into bytes
// most significant first and a trailing partial byte is dropped. Malformed
// input never produces an error; it only yields a shorter key. Secrets typed
// by hand with separators keep working this way.
func Base32Decode(s string) []byte {
	out := make([]byte, 0, len(s)*5/8)
	var (
		buffer uint32
		bits   uint
	)
	for _, r := range strings.ToUpper(s) {
		idx := strings.IndexRune(base32Alphabet, r)
		if idx < 0 {
			continue
		}
		buffer = buffer<<5 | uint32(idx)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buffer>>bits))
			buffer &= (1 << bits) - 1
		}
	}
	return out
}

// CounterBytes encodes a moving factor as 8 bytes big-endian (RFC 4226 §5.2).
func CounterBytes(counter uint64) [8]byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], counter)
	return b
}

// Truncate applies RFC 4226 dynamic truncation to an HMAC digest and returns
// the code left-padded with zeros to the requested number of digits.
// digits is clamped to 1..9; the 31-bit truncated value can't fill more.
// A digest too short to hold the four bytes at its offset yields "", which
// never matches a code.
func Truncate(digest []byte, digits int) string {
	digits = clampDigits(digits)

	if len(digest) == 0 {
		return ""
	}
	offset := int(digest[len(digest)-1] & 0x0f)
	if offset+3 >= len(digest) {
		return ""
	}
	value := uint32(digest[offset]&0x7f)<<24 |
		uint32(digest[offset+1]&0xff)<<16 |
		uint32(digest[offset+2]&0xff)<<8 |
		uint32(digest[offset+3]&0xff)

	code := value % pow10[digits]

	buf := make([]byte, digits)
	for i := digits - 1; i >= 0; i-- {
		buf[i] = byte('0' + code%10)
		code /= 10
	}
	return string(buf)
}

// HOTP computes an RFC 4226 HMAC-SHA1 one-time password for counter.
func HOTP(key []byte, counter uint64, digits int) string {
	msg := CounterBytes(counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])

	return Truncate(mac.Sum(nil), digits)
}

func clampDigits(digits int) int {
	switch {
	case digits < 1:
		return 1
	case digits > 9:
		return 9
	default:
		return digits
	}
}
