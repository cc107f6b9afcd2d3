package totp

import (
	"crypto/subtle"
	"time"
)

const (
	// Digits is the code length accepted by Verify.
	Digits = 6
	// Period is the TOTP time step in seconds.
	Period = 30
	// DefaultWindow accepts the previous, current and next step.
	DefaultWindow = 1
)

// IsValidCodeFormat reports whether code is exactly six ASCII digits.
func IsValidCodeFormat(code string) bool {
	if len(code) != Digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// Verify checks a submitted code against a base32 secret at the instant now.
//
// Every offset in [-window, +window] is evaluated, each one shifting now by
// offset*Period seconds before deriving the counter. The loop always runs to
// its bound and codes are compared in constant time. Codes that are not
// exactly six ASCII digits are rejected before any HMAC is computed.
// A negative window is treated as zero.
func Verify(secretBase32, code string, window int, now time.Time) bool {
	if !IsValidCodeFormat(code) {
		return false
	}
	if window < 0 {
		window = 0
	}

	key := Base32Decode(secretBase32)
	unix := now.Unix()

	matched := 0
	for offset := -window; offset <= window; offset++ {
		candidate := HOTP(key, counterAt(unix+int64(offset)*Period), Digits)
		matched |= subtle.ConstantTimeCompare([]byte(candidate), []byte(code))
	}
	return matched == 1
}

// GenerateCode returns the six-digit code for the time step containing t.
func GenerateCode(secretBase32 string, t time.Time) string {
	return HOTP(Base32Decode(secretBase32), counterAt(t.Unix()), Digits)
}

// counterAt floors unix/Period. Instants before the epoch map to counter 0.
func counterAt(unix int64) uint64 {
	if unix < 0 {
		return 0
	}
	return uint64(unix / Period)
}
