package totp

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"net/url"
)

// SecretSize is the raw secret length: 160 bits, the RFC 4226 recommendation.
const SecretSize = 20

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret draws a fresh raw secret and returns it base32-encoded
// without padding, ready for manual entry or a provisioning URI.
func GenerateSecret() (string, error) {
	raw := make([]byte, SecretSize)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecret, err)
	}
	return secretEncoding.EncodeToString(raw), nil
}

// ProvisioningURI builds the otpauth:// URI consumed by authenticator apps:
//
//	otpauth://totp/{issuer}:{account}?secret={secret}&issuer={issuer}
func ProvisioningURI(issuer, account, secret string) (string, error) {
	switch {
	case secret == "":
		return "", ErrMissingSecret
	case account == "":
		return "", ErrMissingAccountName
	case issuer == "":
		return "", ErrMissingIssuer
	}

	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s",
		url.PathEscape(issuer),
		url.PathEscape(account),
		url.QueryEscape(secret),
		url.QueryEscape(issuer),
	), nil
}
