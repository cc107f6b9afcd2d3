package twofactor

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidCodeFormat = fmt.Errorf("%w: code must be exactly 6 digits", ErrValidation)
	ErrMissingEmail      = fmt.Errorf("%w: email is required", ErrValidation)
	ErrInvalidTrialDays  = fmt.Errorf("%w: trial days must be between 0 and %d", ErrValidation, MaxTrialDays)

	ErrSetupNotFound   = errors.New("no pending setup")
	ErrSetupExpired    = errors.New("pending setup expired")
	ErrInvalidCode     = errors.New("invalid code")
	ErrTrialExpired    = errors.New("trial expired")
	ErrNotEnabled      = errors.New("two-factor authentication is not enabled")
	ErrAlreadyEnabled  = errors.New("two-factor authentication is already enabled")
	ErrProfileNotFound = errors.New("profile not found")

	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrConstraint is returned by stores for a write that would leave a
	// profile enabled without a secret or with a trial ending before it starts.
	ErrConstraint = errors.New("profile constraint violated")

	// ErrInternal is what callers see for store and crypto failures. The
	// cause is logged, never returned.
	ErrInternal = errors.New("internal error")
	ErrStore    = errors.New("store failure")
	ErrCrypto   = errors.New("secret decryption failure")
)
