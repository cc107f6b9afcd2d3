package twofactor

import (
	"fmt"
	"time"

	"github.com/datumlabs/totpgate/pkg/totp"
)

const maxWindow = 10

// MaxTrialDays bounds trial lengths so the expiry stays representable.
const MaxTrialDays = 3650

// Config holds the two-factor settings.
type Config struct {
	EncryptionKey     string        `env:"ENCRYPTION_KEY,required"`
	Issuer            string        `env:"TOTP_ISSUER" envDefault:"Datum"`
	Window            int           `env:"TOTP_WINDOW" envDefault:"1"`
	TrialDurationDays int           `env:"TRIAL_DURATION_DAYS" envDefault:"3"`
	SetupTTL          time.Duration `env:"TOTP_SETUP_TTL" envDefault:"15m"`
	SessionTTL        time.Duration `env:"TOTP_SESSION_TTL" envDefault:"24h"`
	// TrialNewUsers marks profiles created on first setup as trial users.
	TrialNewUsers bool `env:"TRIAL_NEW_USERS" envDefault:"true"`
}

// Validate rejects configuration that would fail on every request.
func (c Config) Validate() error {
	if _, err := totp.ParseHexKey(c.EncryptionKey); err != nil {
		return fmt.Errorf("ENCRYPTION_KEY: %w", err)
	}
	if c.Issuer == "" {
		return fmt.Errorf("TOTP_ISSUER: %w", totp.ErrMissingIssuer)
	}
	if c.Window < 0 || c.Window > maxWindow {
		return fmt.Errorf("TOTP_WINDOW must be between 0 and %d, got %d", maxWindow, c.Window)
	}
	if c.TrialDurationDays <= 0 || c.TrialDurationDays > MaxTrialDays {
		return fmt.Errorf("TRIAL_DURATION_DAYS must be between 1 and %d, got %d", MaxTrialDays, c.TrialDurationDays)
	}
	if c.SetupTTL <= 0 {
		return fmt.Errorf("TOTP_SETUP_TTL must be positive, got %s", c.SetupTTL)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("TOTP_SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// TrialDuration is TrialDurationDays as a duration.
func (c Config) TrialDuration() time.Duration {
	return dayCount(c.TrialDurationDays)
}

func dayCount(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
