package email

// Config selects and configures the sender. Without Postmark tokens New
// falls back to DevSender writing into DevDir.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"no-reply@datum.local"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@datum.local"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
	AppName              string `env:"APP_NAME" envDefault:"Datum"`
}

// UsesPostmark reports whether both Postmark tokens are present.
func (c Config) UsesPostmark() bool {
	return c.PostmarkServerToken != "" && c.PostmarkAccountToken != ""
}
