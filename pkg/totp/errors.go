package totp

import "errors"

var (
	ErrInvalidKeyLength       = errors.New("invalid encryption key length, must be 32 bytes")
	ErrInvalidHexKey          = errors.New("encryption key is not valid hex")
	ErrFormat                 = errors.New("malformed encrypted secret envelope")
	ErrCrypto                 = errors.New("failed to decrypt secret")
	ErrFailedToEncrypt        = errors.New("failed to encrypt secret")
	ErrFailedToGenerateKey    = errors.New("failed to generate encryption key")
	ErrFailedToGenerateSecret = errors.New("failed to generate TOTP secret")
	ErrMissingSecret          = errors.New("missing secret")
	ErrMissingAccountName     = errors.New("missing account name")
	ErrMissingIssuer          = errors.New("missing issuer")
)
