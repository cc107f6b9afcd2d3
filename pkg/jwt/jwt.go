package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"
)

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// Claims is the token payload this service understands.
type Claims struct {
	Subject   string `json:"sub,omitempty"`
	Email     string `json:"email,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	ID        string `json:"jti,omitempty"`
	Issuer    string `json:"iss,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	NotBefore int64  `json:"nbf,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

// Identity derives the caller identity from the claims.
func (c Claims) Identity() Identity {
	sid := c.SessionID
	if sid == "" {
		sid = c.ID
	}
	return Identity{ID: c.Subject, Email: c.Email, SessionID: sid}
}

// validAt checks the temporal claims. Zero values are treated as unset.
func (c Claims) validAt(now time.Time) error {
	ts := now.Unix()
	if c.ExpiresAt > 0 && ts > c.ExpiresAt {
		return ErrExpiredToken
	}
	if c.NotBefore > 0 && ts < c.NotBefore {
		return ErrInvalidToken
	}
	return nil
}

// Config holds the token verification settings.
type Config struct {
	Secret string `env:"AUTH_JWT_SECRET,required"`
	Issuer string `env:"AUTH_JWT_ISSUER"`
}

// Service signs and verifies HS256 tokens.
type Service struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer requires parsed tokens to carry iss == issuer and stamps it on
// issued tokens.
func WithIssuer(issuer string) Option {
	return func(s *Service) { s.issuer = issuer }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(key []byte, opts ...Option) (*Service, error) {
	if len(key) == 0 {
		return nil, ErrMissingSigningKey
	}
	s := &Service{key: key, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func NewFromConfig(cfg Config) (*Service, error) {
	return New([]byte(cfg.Secret), WithIssuer(cfg.Issuer))
}

// Issue signs a token for id valid for ttl from now. The identity provider
// normally does this; the service uses it for tests and local tooling.
func (s *Service) Issue(id Identity, ttl time.Duration) (string, error) {
	now := s.now()
	return s.Generate(Claims{
		Subject:   id.ID,
		Email:     id.Email,
		SessionID: id.SessionID,
		Issuer:    s.issuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	})
}

// Generate signs claims.
func (s *Service) Generate(claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}

	h, err := json.Marshal(header{Type: headerType, Algorithm: headerAlgorithm})
	if err != nil {
		return "", fmt.Errorf("failed to marshal header: %w", err)
	}
	c, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	payload := encode(h) + "." + encode(c)
	return payload + "." + s.sign(payload), nil
}

// Parse verifies token and returns its claims.
func (s *Service) Parse(token string) (Claims, error) {
	var claims Claims

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return claims, ErrInvalidToken
	}

	payload := parts[0] + "." + parts[1]
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(s.sign(payload))) != 1 {
		return claims, ErrInvalidSignature
	}

	raw, err := decode(parts[0])
	if err != nil {
		return claims, fmt.Errorf("%w: header: %v", ErrInvalidToken, err)
	}
	var h header
	if err := json.Unmarshal(raw, &h); err != nil {
		return claims, fmt.Errorf("%w: header: %v", ErrInvalidToken, err)
	}
	if h.Algorithm != headerAlgorithm {
		return claims, ErrUnexpectedSigningMethod
	}

	raw, err = decode(parts[1])
	if err != nil {
		return claims, fmt.Errorf("%w: claims: %v", ErrInvalidToken, err)
	}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return claims, fmt.Errorf("%w: claims: %v", ErrInvalidToken, err)
	}

	if err := claims.validAt(s.now()); err != nil {
		return claims, err
	}
	if claims.Subject == "" {
		return claims, ErrMissingSubject
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return claims, ErrInvalidIssuer
	}
	return claims, nil
}

func (s *Service) sign(payload string) string {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(payload))
	return encode(h.Sum(nil))
}

func encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
