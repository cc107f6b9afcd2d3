package twofactor

import (
	"context"
	"time"
)

// Identity is the authenticated subject an operation acts for.
type Identity struct {
	ID    string
	Email string
}

// Profile is the persisted per-identity two-factor and trial state.
// Zero times mean unset.
type Profile struct {
	IdentityID      string
	Email           string
	EncryptedSecret string
	TOTPEnabled     bool
	IsTrialUser     bool
	TrialStart      time.Time
	TrialExpiration time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TrialExpired reports whether a trial user's window closed before now.
func (p Profile) TrialExpired(now time.Time) bool {
	return p.IsTrialUser && !p.TrialExpiration.IsZero() && p.TrialExpiration.Before(now)
}

// TrialDaysRemaining rounds the remaining trial up to whole days. It is 0
// for expired or non-trial profiles.
func (p Profile) TrialDaysRemaining(now time.Time) int {
	if !p.IsTrialUser || p.TrialExpiration.IsZero() || !p.TrialExpiration.After(now) {
		return 0
	}
	left := p.TrialExpiration.Sub(now)
	day := 24 * time.Hour
	return int((left + day - 1) / day)
}

// PendingSetup is a secret awaiting its first correct code.
type PendingSetup struct {
	IdentityID      string
	EncryptedSecret string
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

// Expired reports whether now is past ExpiresAt.
func (p PendingSetup) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Promotion moves a verified pending secret onto the profile.
type Promotion struct {
	IdentityID      string
	EncryptedSecret string
	TrialStart      time.Time
	TrialExpiration time.Time
}

// SetupResult is returned once by BeginSetup; the plaintext secret is not
// retrievable afterwards.
type SetupResult struct {
	Secret    string
	URI       string
	ExpiresAt time.Time
}

// LoginResult reports how long the verified session flag lasts.
type LoginResult struct {
	VerifiedUntil time.Time
}

// Status is a read-only snapshot for clients and the access gate.
type Status struct {
	State               State
	ProfileExists       bool
	TOTPEnabled         bool
	VerifiedThisSession bool
	IsTrialUser         bool
	TrialStart          time.Time
	TrialExpiration     time.Time
	TrialExpired        bool
	TrialDaysRemaining  int
	SetupExpiresAt      time.Time
}

// Store persists profiles and pending setups.
//
// UpsertPendingSetup replaces any existing record for the identity
// atomically. PromotePendingSetup enables the profile only if it is not
// enabled yet and deletes the pending record in the same transaction; it
// returns ErrAlreadyEnabled when the condition did not hold.
type Store interface {
	GetProfile(ctx context.Context, identityID string) (*Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*Profile, error)
	EnsureProfile(ctx context.Context, id Identity, trial bool, now time.Time) (*Profile, error)
	UpsertPendingSetup(ctx context.Context, p PendingSetup) error
	GetPendingSetup(ctx context.Context, identityID string) (*PendingSetup, error)
	DeletePendingSetup(ctx context.Context, identityID string) error
	PromotePendingSetup(ctx context.Context, p Promotion, now time.Time) (*Profile, error)
	ResetTrial(ctx context.Context, identityID string, start, end, now time.Time) (*Profile, error)
	DeleteExpiredPendingSetups(ctx context.Context, now time.Time) (int64, error)
}

// SessionFlags records which sign-in sessions passed the TOTP challenge.
type SessionFlags interface {
	Set(ctx context.Context, sessionID, identityID string, ttl time.Duration) error
	IsSet(ctx context.Context, sessionID, identityID string) (bool, error)
	Clear(ctx context.Context, sessionID, identityID string) error
}

// Notifier delivers user-facing notices. Implementations must not block and
// handle their own failures.
type Notifier interface {
	TwoFactorEnabled(ctx context.Context, to string, trialEnds time.Time)
	TrialReset(ctx context.Context, to string, trialEnds time.Time)
}

type nopNotifier struct{}

func (nopNotifier) TwoFactorEnabled(context.Context, string, time.Time) {}
func (nopNotifier) TrialReset(context.Context, string, time.Time)       {}
