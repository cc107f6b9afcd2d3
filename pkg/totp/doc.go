// Package totp implements the primitives behind time-based two-factor
// authentication: a lenient base32 codec, RFC 4226 HOTP, a windowed RFC 6238
// verifier and an AES-256-GCM cipher for keeping secrets encrypted at rest.
//
// The package holds no state and never reads the clock or the environment.
// Callers pass the instant to verify against and construct the Cipher from
// key material they loaded themselves, which keeps every function
// deterministic under test.
//
// # Codec
//
// Base32Decode skips characters outside the alphabet instead of failing, so
// secrets typed with spaces or lower case still decode. HOTP encodes the
// counter big-endian, computes HMAC-SHA1 and applies dynamic truncation with
// the standard masks (0x0f offset nibble, 0x7f on the first byte).
//
// # Verification
//
//	ok := totp.Verify(secret, "287082", totp.DefaultWindow, time.Now())
//
// Verify evaluates every step in [-window, +window] and compares codes in
// constant time. Anything other than exactly six ASCII digits is rejected
// without computing a single HMAC.
//
// # Encryption
//
//	c, err := totp.NewCipherFromHex(os.Getenv("ENCRYPTION_KEY"))
//	env, err := c.Encrypt(secret)  // "base64(ct):base64(nonce)"
//	plain, err := c.Decrypt(env)
//
// Decrypt distinguishes structural problems (ErrFormat) from authentication
// failures (ErrCrypto); neither carries details of the underlying primitive.
//
// # Provisioning
//
// GenerateSecret returns 20 random bytes base32-encoded without padding and
// ProvisioningURI formats the otpauth:// URI rendered into a QR code.
package totp
