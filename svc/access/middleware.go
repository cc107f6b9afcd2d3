package access

import (
	"log/slog"
	"net/http"

	"github.com/datumlabs/totpgate/pkg/handler"
	"github.com/datumlabs/totpgate/pkg/logger"
)

// StateResolver loads the caller's state for a request. The Resource field
// of the returned Input is ignored. An error is treated as a profile that
// could not be loaded.
type StateResolver func(r *http.Request) (Input, error)

// DenyHandler writes the response for any decision other than Allow.
type DenyHandler func(w http.ResponseWriter, r *http.Request, d Decision)

type config struct {
	deny   DenyHandler
	logger *slog.Logger
}

// Option configures Middleware.
type Option func(*config)

func WithDenyHandler(h DenyHandler) Option {
	return func(c *config) {
		if h != nil {
			c.deny = h
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Middleware gates every request behind Decide for res.
func Middleware(resolve StateResolver, res Resource, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		deny:   DefaultDenyHandler,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			in, err := resolve(r)
			if err != nil {
				cfg.logger.WarnContext(r.Context(), "access state unavailable", logger.Error(err))
				in = Input{Authenticated: in.Authenticated}
			}
			in.Resource = res

			d := Decide(in)
			if d == Allow {
				next.ServeHTTP(w, r)
				return
			}

			cfg.logger.DebugContext(r.Context(), "access denied",
				logger.Decision(string(d)),
				slog.String("path", r.URL.Path),
			)
			cfg.deny(w, r, d)
		})
	}
}

// DefaultDenyHandler answers with the JSON error envelope carrying the
// decision and the client route to redirect to.
func DefaultDenyHandler(w http.ResponseWriter, _ *http.Request, d Decision) {
	he := handler.NewHTTPError(d.StatusCode(), d.message()).With("decision", d)
	if p := d.RedirectPath(); p != "" {
		he = he.With("redirect", p)
	}
	switch d {
	case RedirectTrialExpired:
		he = he.With("trial_expired", true)
	case Pending:
		w.Header().Set("Retry-After", "1")
	}
	_ = handler.WriteError(w, he)
}
