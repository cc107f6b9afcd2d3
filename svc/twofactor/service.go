package twofactor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/datumlabs/totpgate/pkg/logger"
	"github.com/datumlabs/totpgate/pkg/totp"
)

// Service implements the secret lifecycle and login verification.
type Service struct {
	cfg      Config
	store    Store
	flags    SessionFlags
	cipher   *totp.Cipher
	notifier Notifier
	log      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. Nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithNotifier enables confirmation emails for setup completion and trial
// resets.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// NewService validates cfg and builds the cipher from its encryption key.
func NewService(cfg Config, store Store, flags SessionFlags, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c, err := totp.NewCipherFromHex(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:      cfg,
		store:    store,
		flags:    flags,
		cipher:   c,
		notifier: nopNotifier{},
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("twofactor"))
	return s, nil
}

// BeginSetup issues a new secret for id and stores it as the pending setup,
// replacing any earlier one. The plaintext secret is only returned here.
func (s *Service) BeginSetup(ctx context.Context, id Identity, now time.Time) (*SetupResult, error) {
	if id.ID == "" {
		return nil, ErrUnauthorized
	}

	profile, err := s.store.EnsureProfile(ctx, id, s.cfg.TrialNewUsers, now)
	if err != nil {
		return nil, s.internal(ctx, "begin_setup", id.ID, ErrStore, err)
	}
	if _, err := Next(ctx, profile, nil, EventBeginSetup, now); err != nil {
		return nil, err
	}

	secret, err := totp.GenerateSecret()
	if err != nil {
		return nil, s.internal(ctx, "begin_setup", id.ID, ErrCrypto, err)
	}
	encrypted, err := s.cipher.Encrypt(secret)
	if err != nil {
		return nil, s.internal(ctx, "begin_setup", id.ID, ErrCrypto, err)
	}

	pending := PendingSetup{
		IdentityID:      id.ID,
		EncryptedSecret: encrypted,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.cfg.SetupTTL),
	}
	if err := s.store.UpsertPendingSetup(ctx, pending); err != nil {
		return nil, s.internal(ctx, "begin_setup", id.ID, ErrStore, err)
	}

	uri, err := totp.ProvisioningURI(s.cfg.Issuer, accountLabel(id, profile), secret)
	if err != nil {
		return nil, s.internal(ctx, "begin_setup", id.ID, ErrCrypto, err)
	}

	s.log.InfoContext(ctx, "two-factor setup started",
		logger.IdentityID(id.ID),
		slog.Time("expires_at", pending.ExpiresAt),
	)

	return &SetupResult{Secret: secret, URI: uri, ExpiresAt: pending.ExpiresAt}, nil
}

// CompleteSetup verifies code against the pending secret and, on success,
// enables two-factor and starts the trial. A wrong code keeps the pending
// setup so the user can retry; an expired one is deleted.
//
// Completing an already enabled profile is a no-op success and does not
// restart the trial.
func (s *Service) CompleteSetup(ctx context.Context, identityID, code string, now time.Time) error {
	if identityID == "" {
		return ErrUnauthorized
	}
	if !totp.IsValidCodeFormat(code) {
		return ErrInvalidCodeFormat
	}

	pending, err := s.store.GetPendingSetup(ctx, identityID)
	switch {
	case errors.Is(err, ErrSetupNotFound):
		return ErrSetupNotFound
	case err != nil:
		return s.internal(ctx, "complete_setup", identityID, ErrStore, err)
	}

	if _, err := Next(ctx, nil, pending, EventCompleteSetup, now); err != nil {
		if !errors.Is(err, ErrSetupExpired) {
			return err
		}
		if _, err := Next(ctx, nil, pending, EventExpireSetup, now); err != nil {
			return err
		}
		if err := s.store.DeletePendingSetup(ctx, identityID); err != nil {
			s.log.WarnContext(ctx, "failed to delete expired setup",
				logger.IdentityID(identityID), logger.Error(err))
		}
		return ErrSetupExpired
	}

	secret, err := s.cipher.Decrypt(pending.EncryptedSecret)
	if err != nil {
		return s.internal(ctx, "complete_setup", identityID, ErrCrypto, err)
	}
	if !totp.Verify(secret, code, s.cfg.Window, now) {
		return ErrInvalidCode
	}

	profile, err := s.store.PromotePendingSetup(ctx, Promotion{
		IdentityID:      identityID,
		EncryptedSecret: pending.EncryptedSecret,
		TrialStart:      now,
		TrialExpiration: now.Add(s.cfg.TrialDuration()),
	}, now)
	switch {
	case errors.Is(err, ErrAlreadyEnabled):
		// Lost a race with a concurrent completion.
		return nil
	case errors.Is(err, ErrProfileNotFound):
		return ErrProfileNotFound
	case err != nil:
		return s.internal(ctx, "complete_setup", identityID, ErrStore, err)
	}

	s.log.InfoContext(ctx, "two-factor enabled",
		logger.IdentityID(identityID),
		slog.Time("trial_expiration", profile.TrialExpiration),
	)
	s.notifier.TwoFactorEnabled(ctx, profile.Email, profile.TrialExpiration)
	return nil
}

// ValidateLogin is the sign-in TOTP challenge. The trial is checked before
// the code, so an expired trial is reported even for a correct code. On
// success the session is flagged as verified for Config.SessionTTL.
func (s *Service) ValidateLogin(ctx context.Context, identityID, sessionID, code string, now time.Time) (*LoginResult, error) {
	if identityID == "" {
		return nil, ErrUnauthorized
	}
	if !totp.IsValidCodeFormat(code) {
		return nil, ErrInvalidCodeFormat
	}

	profile, err := s.store.GetProfile(ctx, identityID)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		return nil, ErrProfileNotFound
	case err != nil:
		return nil, s.internal(ctx, "validate_login", identityID, ErrStore, err)
	}

	if !profile.TOTPEnabled || profile.EncryptedSecret == "" {
		return nil, ErrNotEnabled
	}
	if profile.TrialExpired(now) {
		s.log.InfoContext(ctx, "login rejected: trial expired", logger.IdentityID(identityID))
		return nil, ErrTrialExpired
	}

	secret, err := s.cipher.Decrypt(profile.EncryptedSecret)
	if err != nil {
		return nil, s.internal(ctx, "validate_login", identityID, ErrCrypto, err)
	}
	if !totp.Verify(secret, code, s.cfg.Window, now) {
		return nil, ErrInvalidCode
	}

	if sessionID != "" {
		if err := s.flags.Set(ctx, sessionID, identityID, s.cfg.SessionTTL); err != nil {
			return nil, s.internal(ctx, "validate_login", identityID, ErrStore, err)
		}
	}

	return &LoginResult{VerifiedUntil: now.Add(s.cfg.SessionTTL)}, nil
}

// EndSession drops the verified flag of a session, for sign-out.
func (s *Service) EndSession(ctx context.Context, identityID, sessionID string) error {
	if identityID == "" {
		return ErrUnauthorized
	}
	if sessionID == "" {
		return nil
	}
	if err := s.flags.Clear(ctx, sessionID, identityID); err != nil {
		return s.internal(ctx, "end_session", identityID, ErrStore, err)
	}
	return nil
}

// Status reports the lifecycle state, trial and session verification of an
// identity. A missing profile is reported as no_secret, not as an error.
func (s *Service) Status(ctx context.Context, identityID, sessionID string, now time.Time) (*Status, error) {
	if identityID == "" {
		return nil, ErrUnauthorized
	}

	st := &Status{State: StateNoSecret}

	profile, err := s.store.GetProfile(ctx, identityID)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		profile = nil
	case err != nil:
		return nil, s.internal(ctx, "status", identityID, ErrStore, err)
	}

	var pending *PendingSetup
	if profile == nil || !profile.TOTPEnabled {
		pending, err = s.store.GetPendingSetup(ctx, identityID)
		switch {
		case errors.Is(err, ErrSetupNotFound):
			pending = nil
		case err != nil:
			return nil, s.internal(ctx, "status", identityID, ErrStore, err)
		}
		if pending != nil && pending.Expired(now) {
			pending = nil
		}
	}

	st.State = StateOf(profile, pending)
	if pending != nil {
		st.SetupExpiresAt = pending.ExpiresAt
	}
	if profile != nil {
		st.ProfileExists = true
		st.TOTPEnabled = profile.TOTPEnabled
		st.IsTrialUser = profile.IsTrialUser
		st.TrialStart = profile.TrialStart
		st.TrialExpiration = profile.TrialExpiration
		st.TrialExpired = profile.TrialExpired(now)
		st.TrialDaysRemaining = profile.TrialDaysRemaining(now)
	}

	if st.TOTPEnabled && sessionID != "" {
		ok, err := s.flags.IsSet(ctx, sessionID, identityID)
		if err != nil {
			return nil, s.internal(ctx, "status", identityID, ErrStore, err)
		}
		st.VerifiedThisSession = ok
	}

	return st, nil
}

// ResetTrial restarts the trial of the profile registered under email for
// days days, or Config.TrialDurationDays when days is zero. It is an
// administrative action; authorisation is the caller's concern.
func (s *Service) ResetTrial(ctx context.Context, email string, days int, now time.Time) (*Profile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrMissingEmail
	}
	if days < 0 || days > MaxTrialDays {
		return nil, ErrInvalidTrialDays
	}
	if days == 0 {
		days = s.cfg.TrialDurationDays
	}

	profile, err := s.store.GetProfileByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		return nil, ErrProfileNotFound
	case err != nil:
		return nil, s.internal(ctx, "reset_trial", "", ErrStore, err)
	}

	updated, err := s.store.ResetTrial(ctx, profile.IdentityID, now, now.Add(dayCount(days)), now)
	if err != nil {
		return nil, s.internal(ctx, "reset_trial", profile.IdentityID, ErrStore, err)
	}

	s.log.InfoContext(ctx, "trial reset",
		logger.IdentityID(updated.IdentityID),
		slog.Int("days", days),
	)
	s.notifier.TrialReset(ctx, updated.Email, updated.TrialExpiration)
	return updated, nil
}

// PurgeExpiredSetups removes pending setups that can no longer be completed.
func (s *Service) PurgeExpiredSetups(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.DeleteExpiredPendingSetups(ctx, now)
	if err != nil {
		return 0, s.internal(ctx, "purge_expired_setups", "", ErrStore, err)
	}
	if n > 0 {
		s.log.DebugContext(ctx, "purged expired setups", logger.Count(n))
	}
	return n, nil
}

func (s *Service) internal(ctx context.Context, op, identityID string, kind, cause error) error {
	s.log.ErrorContext(ctx, "two-factor operation failed",
		logger.Operation(op),
		logger.IdentityID(identityID),
		slog.String("kind", kind.Error()),
		logger.Error(cause),
	)
	return errors.Join(ErrInternal, kind)
}

func accountLabel(id Identity, p *Profile) string {
	switch {
	case id.Email != "":
		return id.Email
	case p != nil && p.Email != "":
		return p.Email
	default:
		return id.ID
	}
}
