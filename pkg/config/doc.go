// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv (an optional .env file is read once per
// process) and github.com/caarlos0/env/v11 (struct tags drive parsing).
// Structs that implement Validator get a post-parse check, so malformed values
// such as a short encryption key fail at startup rather than per request.
//
//	type Config struct {
//		Window int `env:"TOTP_WINDOW" envDefault:"1"`
//	}
//
//	func (c Config) Validate() error { ... }
//
//	var cfg Config
//	config.MustLoad(&cfg) // panics on missing/invalid values
//
// Load caches each type after the first call. Parse skips the cache and is
// what tests use with t.Setenv.
package config
