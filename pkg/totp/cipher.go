package totp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"strings"
)

const (
	// KeySize is the AES-256 key size in bytes.
	KeySize = 32
	// NonceSize is the GCM nonce size in bytes.
	NonceSize = 12

	envelopeSeparator = ":"
)

// Cipher encrypts TOTP secrets at rest with AES-256-GCM under a single
// process-wide key.
//
// Envelopes are serialized as base64(ciphertext||tag) + ":" + base64(nonce).
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a raw 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrInvalidKeyLength, err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, errors.Join(ErrInvalidKeyLength, err)
	}

	return &Cipher{aead: aead}, nil
}

// NewCipherFromHex builds a Cipher from a 64-character hex key.
func NewCipherFromHex(hexKey string) (*Cipher, error) {
	key, err := ParseHexKey(hexKey)
	if err != nil {
		return nil, err
	}
	return NewCipher(key)
}

// ParseHexKey decodes a hex-encoded key and enforces the AES-256 length.
func ParseHexKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, errors.Join(ErrInvalidHexKey, err)
	}
	if len(key) != KeySize {
		return nil, ErrInvalidKeyLength
	}
	return key, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrFailedToEncrypt, err)
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed) +
		envelopeSeparator +
		base64.StdEncoding.EncodeToString(nonce), nil
}

// Decrypt opens an envelope produced by Encrypt.
// Structural problems return ErrFormat, authentication failures ErrCrypto.
func (c *Cipher) Decrypt(envelope string) (string, error) {
	ctPart, noncePart, found := strings.Cut(envelope, envelopeSeparator)
	if !found || ctPart == "" || noncePart == "" {
		return "", ErrFormat
	}

	sealed, err := base64.StdEncoding.DecodeString(ctPart)
	if err != nil {
		return "", errors.Join(ErrFormat, err)
	}
	nonce, err := base64.StdEncoding.DecodeString(noncePart)
	if err != nil {
		return "", errors.Join(ErrFormat, err)
	}
	if len(nonce) != NonceSize {
		return "", ErrFormat
	}

	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		// The GCM error carries no key material, but callers only need the class.
		return "", ErrCrypto
	}

	return string(plain), nil
}

// GenerateKey returns a new random AES-256 key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Join(ErrFailedToGenerateKey, err)
	}
	return key, nil
}

// GenerateHexKey returns a new random AES-256 key hex-encoded, the format
// expected by the ENCRYPTION_KEY variable.
func GenerateHexKey() (string, error) {
	key, err := GenerateKey()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
