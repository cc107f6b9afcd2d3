package twofactor

// Config holds the HTTP module settings.
type Config struct {
	// AdminEmail is the only identity allowed to reset trials. Empty
	// disables the admin endpoint.
	AdminEmail string `env:"ADMIN_EMAIL"`
	// AdminRequireTOTP puts the admin endpoint behind a verified two-factor
	// session.
	AdminRequireTOTP bool `env:"ADMIN_REQUIRE_TOTP" envDefault:"true"`
	QRCodeSize       int  `env:"TOTP_QR_SIZE" envDefault:"256"`
}
