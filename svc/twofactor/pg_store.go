package twofactor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/datumlabs/totpgate/pkg/pg"
)

// DB is the subset of *pgxpool.Pool used by PGStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PGStore is the PostgreSQL Store. Schema lives in db/migrations.
type PGStore struct {
	db DB
}

// NewPGStore wraps a pool or transaction-capable connection.
func NewPGStore(db DB) *PGStore {
	return &PGStore{db: db}
}

const profileColumns = `id, email, totp_secret, totp_enabled, is_trial_user,
	trial_start_date, trial_expiration_date, created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var (
		p          Profile
		secret     *string
		start, end *time.Time
	)
	err := row.Scan(&p.IdentityID, &p.Email, &secret, &p.TOTPEnabled, &p.IsTrialUser,
		&start, &end, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if secret != nil {
		p.EncryptedSecret = *secret
	}
	if start != nil {
		p.TrialStart = *start
	}
	if end != nil {
		p.TrialExpiration = *end
	}
	return &p, nil
}

// GetProfile returns the profile or ErrProfileNotFound.
func (s *PGStore) GetProfile(ctx context.Context, identityID string) (*Profile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, identityID))
	if pg.IsNotFoundError(err) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// GetProfileByEmail matches email case-insensitively, oldest profile first.
func (s *PGStore) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower($1)
		ORDER BY created_at LIMIT 1`, email))
	if pg.IsNotFoundError(err) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile by email: %w", err)
	}
	return p, nil
}

// EnsureProfile inserts a profile or, if one exists, fills in a missing email.
func (s *PGStore) EnsureProfile(ctx context.Context, id Identity, trial bool, now time.Time) (*Profile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx, `
		INSERT INTO profiles (id, email, is_trial_user, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (id) DO UPDATE
			SET email = CASE WHEN profiles.email = '' THEN EXCLUDED.email ELSE profiles.email END
		RETURNING `+profileColumns,
		id.ID, id.Email, trial, now))
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return p, nil
}

// UpsertPendingSetup replaces any earlier pending setup for the identity.
func (s *PGStore) UpsertPendingSetup(ctx context.Context, p PendingSetup) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO totp_setup_tokens (user_id, totp_secret, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
			SET totp_secret = EXCLUDED.totp_secret,
				created_at = EXCLUDED.created_at,
				expires_at = EXCLUDED.expires_at`,
		p.IdentityID, p.EncryptedSecret, p.CreatedAt, p.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upsert pending setup: %w", err)
	}
	return nil
}

// GetPendingSetup returns ErrSetupNotFound when there is none.
func (s *PGStore) GetPendingSetup(ctx context.Context, identityID string) (*PendingSetup, error) {
	var p PendingSetup
	err := s.db.QueryRow(ctx, `
		SELECT user_id, totp_secret, created_at, expires_at
		FROM totp_setup_tokens WHERE user_id = $1`, identityID).
		Scan(&p.IdentityID, &p.EncryptedSecret, &p.CreatedAt, &p.ExpiresAt)
	if pg.IsNotFoundError(err) {
		return nil, ErrSetupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pending setup: %w", err)
	}
	return &p, nil
}

// DeletePendingSetup is a no-op when nothing is pending.
func (s *PGStore) DeletePendingSetup(ctx context.Context, identityID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM totp_setup_tokens WHERE user_id = $1`, identityID); err != nil {
		return fmt.Errorf("delete pending setup: %w", err)
	}
	return nil
}

// PromotePendingSetup enables the profile with a conditional update and
// removes the pending record in one transaction.
func (s *PGStore) PromotePendingSetup(ctx context.Context, pr Promotion, now time.Time) (*Profile, error) {
	var promoted *Profile
	err := pg.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		p, err := scanProfile(tx.QueryRow(ctx, `
			UPDATE profiles
			SET totp_secret = $2, totp_enabled = true,
				trial_start_date = $3, trial_expiration_date = $4, updated_at = $5
			WHERE id = $1 AND totp_enabled = false
			RETURNING `+profileColumns,
			pr.IdentityID, pr.EncryptedSecret, pr.TrialStart, pr.TrialExpiration, now))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM totp_setup_tokens WHERE user_id = $1`, pr.IdentityID); err != nil {
			return err
		}
		promoted = p
		return nil
	})
	if err == nil {
		return promoted, nil
	}
	if pg.IsCheckViolationError(err) {
		return nil, fmt.Errorf("promote pending setup: %w: %w", ErrConstraint, err)
	}
	if !pg.IsNotFoundError(err) {
		return nil, fmt.Errorf("promote pending setup: %w", err)
	}

	// Nothing matched: either the profile is gone or it was enabled already.
	existing, gerr := s.GetProfile(ctx, pr.IdentityID)
	switch {
	case errors.Is(gerr, ErrProfileNotFound):
		return nil, ErrProfileNotFound
	case gerr != nil:
		return nil, gerr
	}
	if existing.TOTPEnabled {
		_ = s.DeletePendingSetup(ctx, pr.IdentityID)
		return nil, ErrAlreadyEnabled
	}
	return nil, fmt.Errorf("promote pending setup: profile %s not updated", pr.IdentityID)
}

// ResetTrial marks the profile as a trial user running from start to end.
func (s *PGStore) ResetTrial(ctx context.Context, identityID string, start, end, now time.Time) (*Profile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx, `
		UPDATE profiles
		SET is_trial_user = true, trial_start_date = $2, trial_expiration_date = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+profileColumns,
		identityID, start, end, now))
	if pg.IsNotFoundError(err) {
		return nil, ErrProfileNotFound
	}
	if pg.IsCheckViolationError(err) {
		return nil, fmt.Errorf("reset trial: %w: %w", ErrConstraint, err)
	}
	if err != nil {
		return nil, fmt.Errorf("reset trial: %w", err)
	}
	return p, nil
}

// DeleteExpiredPendingSetups removes setups expired at now and reports how
// many were removed.
func (s *PGStore) DeleteExpiredPendingSetups(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM totp_setup_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired setups: %w", err)
	}
	return tag.RowsAffected(), nil
}
