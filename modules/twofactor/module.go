package twofactor

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/datumlabs/totpgate/pkg/handler"
	"github.com/datumlabs/totpgate/pkg/jwt"
	"github.com/datumlabs/totpgate/pkg/logger"
	"github.com/datumlabs/totpgate/pkg/qrcode"
	"github.com/datumlabs/totpgate/svc/access"
	"github.com/datumlabs/totpgate/svc/twofactor"
)

// TwoFactor is the part of *twofactor.Service the endpoints call.
type TwoFactor interface {
	BeginSetup(ctx context.Context, id twofactor.Identity, now time.Time) (*twofactor.SetupResult, error)
	CompleteSetup(ctx context.Context, identityID, code string, now time.Time) error
	ValidateLogin(ctx context.Context, identityID, sessionID, code string, now time.Time) (*twofactor.LoginResult, error)
	EndSession(ctx context.Context, identityID, sessionID string) error
	Status(ctx context.Context, identityID, sessionID string, now time.Time) (*twofactor.Status, error)
	ResetTrial(ctx context.Context, email string, days int, now time.Time) (*twofactor.Profile, error)
}

// Module serves the two-factor endpoints.
type Module struct {
	cfg        Config
	svc        TwoFactor
	tokens     *jwt.Service
	qr         *qrcode.Renderer
	now        func() time.Time
	log        *slog.Logger
	emailQueue bool
}

// Option configures a Module.
type Option func(*Module)

func WithLogger(l *slog.Logger) Option {
	return func(m *Module) {
		if l != nil {
			m.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Module) {
		if now != nil {
			m.now = now
		}
	}
}

// WithEmailNotifications reports whether the service has a notifier that
// queues a confirmation email on trial reset. The admin endpoint echoes it as
// email_queued; delivery itself is asynchronous and not reported.
func WithEmailNotifications(enabled bool) Option {
	return func(m *Module) { m.emailQueue = enabled }
}

func New(cfg Config, svc TwoFactor, tokens *jwt.Service, opts ...Option) *Module {
	m := &Module{
		cfg:    cfg,
		svc:    svc,
		tokens: tokens,
		now:    time.Now,
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}

	qrOpts := []qrcode.Option{qrcode.WithHighRecovery()}
	if cfg.QRCodeSize > 0 {
		qrOpts = append(qrOpts, qrcode.WithSize(cfg.QRCodeSize))
	}
	m.qr = qrcode.New(qrOpts...)
	m.log = m.log.With(logger.Component("twofactor_http"))
	return m
}

// Handle returns the router:
//
//	POST /totp/setup
//	POST /totp/setup/verify
//	POST /totp/login/verify
//	POST /totp/signout
//	GET  /totp/status
//	GET  /totp/access
//	POST /admin/trial/reset
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()

	r.Route("/totp", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(jwt.Middleware(m.tokens))

			r.Post("/setup", handler.Wrap(m.setup,
				handler.WithErrorMapper[struct{}](errorMapper("Failed to setup TOTP")),
				handler.WithLogger[struct{}](m.log),
			))
			r.Post("/setup/verify", handler.Wrap(m.verifySetup,
				handler.WithBinder[tokenRequest](handler.BindJSON()),
				handler.WithErrorMapper[tokenRequest](errorMapper("Failed to verify TOTP")),
				handler.WithLogger[tokenRequest](m.log),
			))
			r.Post("/login/verify", handler.Wrap(m.verifyLogin,
				handler.WithBinder[tokenRequest](handler.BindJSON()),
				handler.WithErrorMapper[tokenRequest](loginErrorMapper()),
				handler.WithLogger[tokenRequest](m.log),
			))
			r.Post("/signout", handler.Wrap(m.signout,
				handler.WithErrorMapper[struct{}](errorMapper("Failed to sign out")),
				handler.WithLogger[struct{}](m.log),
			))
			r.Get("/status", handler.Wrap(m.status,
				handler.WithErrorMapper[struct{}](errorMapper("Failed to load TOTP status")),
				handler.WithLogger[struct{}](m.log),
			))
		})

		r.With(jwt.Optional(m.tokens)).Get("/access", handler.Wrap(m.access,
			handler.WithLogger[struct{}](m.log),
		))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(jwt.Middleware(m.tokens))
		if m.cfg.AdminRequireTOTP {
			r.Use(m.Gate(access.Resource{RequiresAuth: true, RequiresTOTP: true}))
		}
		r.Post("/trial/reset", handler.Wrap(m.resetTrial,
			handler.WithBinder[resetTrialRequest](handler.BindJSON()),
			handler.WithErrorMapper[resetTrialRequest](errorMapper("Failed to reset trial")),
			handler.WithLogger[resetTrialRequest](m.log),
		))
	})

	return r
}

// Gate returns access middleware for res, resolving state through the
// two-factor service. It expects jwt.Middleware or jwt.Optional upstream.
func (m *Module) Gate(res access.Resource) func(http.Handler) http.Handler {
	return access.Middleware(m.ResolveState, res, access.WithLogger(m.log))
}

// ResolveState loads the access gate input for the caller of r. A failed
// status lookup leaves the profile unloaded.
func (m *Module) ResolveState(r *http.Request) (access.Input, error) {
	id, ok := jwt.IdentityFromContext(r.Context())
	if !ok {
		return access.Input{}, nil
	}

	in := access.Input{Authenticated: true}
	st, err := m.svc.Status(r.Context(), id.ID, id.SessionID, m.now())
	if err != nil {
		return in, err
	}

	in.ProfileLoaded = true
	in.TOTPEnabled = st.TOTPEnabled
	in.TOTPVerifiedThisSession = st.VerifiedThisSession
	in.TrialExpired = st.TrialExpired
	return in, nil
}
