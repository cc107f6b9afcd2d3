package totp_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datumlabs/totpgate/pkg/totp"
)

const testHexKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestCipher(t *testing.T) *totp.Cipher {
	t.Helper()
	c, err := totp.NewCipherFromHex(testHexKey)
	require.NoError(t, err)
	return c
}

func TestCipher_RoundTrip(t *testing.T) {
	t.Parallel()
	c := newTestCipher(t)

	for _, plain := range []string{
		"",
		"JBSWY3DPEHPK3PXP",
		"with\x00embedded\x00nulls",
		"unicode: пароль 秘密 🔐",
		strings.Repeat("A", 4096),
	} {
		env, err := c.Encrypt(plain)
		require.NoError(t, err)
		assert.Contains(t, env, ":")

		got, err := c.Decrypt(env)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestCipher_FreshNoncePerCall(t *testing.T) {
	t.Parallel()
	c := newTestCipher(t)

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)

	_, nonce, ok := strings.Cut(a, ":")
	require.True(t, ok)
	raw, err := base64.StdEncoding.DecodeString(nonce)
	require.NoError(t, err)
	assert.Len(t, raw, totp.NonceSize)
}

func TestCipher_TamperDetection(t *testing.T) {
	t.Parallel()
	c := newTestCipher(t)

	env, err := c.Encrypt("GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ")
	require.NoError(t, err)

	ctPart, noncePart, ok := strings.Cut(env, ":")
	require.True(t, ok)
	sealed, err := base64.StdEncoding.DecodeString(ctPart)
	require.NoError(t, err)

	for i := range len(sealed) * 8 {
		flipped := append([]byte(nil), sealed...)
		flipped[i/8] ^= 1 << (i % 8)

		tampered := base64.StdEncoding.EncodeToString(flipped) + ":" + noncePart
		got, err := c.Decrypt(tampered)
		require.ErrorIs(t, err, totp.ErrCrypto, "bit %d", i)
		require.Empty(t, got)
	}
}

func TestCipher_TamperedNonce(t *testing.T) {
	t.Parallel()
	c := newTestCipher(t)

	env, err := c.Encrypt("secret")
	require.NoError(t, err)

	ctPart, noncePart, _ := strings.Cut(env, ":")
	nonce, err := base64.StdEncoding.DecodeString(noncePart)
	require.NoError(t, err)
	nonce[0] ^= 0x01

	_, err = c.Decrypt(ctPart + ":" + base64.StdEncoding.EncodeToString(nonce))
	assert.ErrorIs(t, err, totp.ErrCrypto)
}

func TestCipher_WrongKey(t *testing.T) {
	t.Parallel()
	c := newTestCipher(t)

	other, err := totp.GenerateKey()
	require.NoError(t, err)
	c2, err := totp.NewCipher(other)
	require.NoError(t, err)

	env, err := c.Encrypt("secret")
	require.NoError(t, err)

	_, err = c2.Decrypt(env)
	assert.ErrorIs(t, err, totp.ErrCrypto)
}

func TestCipher_MalformedEnvelope(t *testing.T) {
	t.Parallel()
	c := newTestCipher(t)

	validNonce := base64.StdEncoding.EncodeToString(make([]byte, totp.NonceSize))

	tests := []struct {
		name     string
		envelope string
	}{
		{name: "no separator", envelope: "bm9zZXBhcmF0b3I="},
		{name: "empty", envelope: ""},
		{name: "empty ciphertext", envelope: ":" + validNonce},
		{name: "empty nonce", envelope: "YWJj:"},
		{name: "ciphertext not base64", envelope: "!!!:" + validNonce},
		{name: "nonce not base64", envelope: "YWJj:***"},
		{name: "nonce wrong length", envelope: "YWJj:" + base64.StdEncoding.EncodeToString([]byte("short"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := c.Decrypt(tt.envelope)
			assert.ErrorIs(t, err, totp.ErrFormat)
		})
	}
}

func TestNewCipher_KeyValidation(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, 16, 24, 31, 33, 64} {
		_, err := totp.NewCipher(make([]byte, size))
		assert.ErrorIs(t, err, totp.ErrInvalidKeyLength, "size %d", size)
	}

	_, err := totp.NewCipher(make([]byte, totp.KeySize))
	assert.NoError(t, err)
}

func TestParseHexKey(t *testing.T) {
	t.Parallel()

	key, err := totp.ParseHexKey(testHexKey)
	require.NoError(t, err)
	assert.Len(t, key, totp.KeySize)

	_, err = totp.ParseHexKey("zz")
	assert.ErrorIs(t, err, totp.ErrInvalidHexKey)

	_, err = totp.ParseHexKey("0011")
	assert.ErrorIs(t, err, totp.ErrInvalidKeyLength)

	_, err = totp.ParseHexKey(testHexKey + "00")
	assert.ErrorIs(t, err, totp.ErrInvalidKeyLength)
}

func TestGenerateHexKey(t *testing.T) {
	t.Parallel()

	hexKey, err := totp.GenerateHexKey()
	require.NoError(t, err)
	assert.Len(t, hexKey, totp.KeySize*2)

	_, err = totp.NewCipherFromHex(hexKey)
	assert.NoError(t, err)
}
