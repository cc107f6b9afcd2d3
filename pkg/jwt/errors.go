package jwt

import "errors"

var (
	ErrInvalidToken            = errors.New("jwt: invalid token")
	ErrExpiredToken            = errors.New("jwt: token is expired")
	ErrMissingSigningKey       = errors.New("jwt: missing signing key")
	ErrMissingClaims           = errors.New("jwt: missing claims")
	ErrMissingSubject          = errors.New("jwt: missing subject")
	ErrInvalidSignature        = errors.New("jwt: invalid signature")
	ErrInvalidIssuer           = errors.New("jwt: unexpected issuer")
	ErrUnexpectedSigningMethod = errors.New("jwt: unexpected signing method")
)
