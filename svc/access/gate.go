package access

import "net/http"

// Resource describes what a route demands of the caller.
type Resource struct {
	RequiresAuth bool
	RequiresTOTP bool
	// IsTOTPSetup marks the setup page itself, which must stay reachable
	// for users without two-factor.
	IsTOTPSetup bool
}

// Input is everything the gate looks at.
type Input struct {
	Authenticated           bool
	ProfileLoaded           bool
	TOTPEnabled             bool
	TOTPVerifiedThisSession bool
	TrialExpired            bool
	Resource                Resource
}

// Decision is the outcome of Decide.
type Decision string

const (
	Allow                Decision = "allow"
	RedirectLogin        Decision = "redirect_login"
	RedirectTOTPSetup    Decision = "redirect_totp_setup"
	RedirectTrialExpired Decision = "redirect_trial_expired"
	Pending              Decision = "pending"
)

// Client routes the redirect decisions point at.
const (
	LoginPath        = "/login"
	TOTPSetupPath    = "/totp-setup"
	TrialExpiredPath = "/trial-expired"
)

// Decide evaluates the rules in order; the first match wins. Trial expiry is
// checked before the setup redirect so an expired user is never sent into
// setup.
func Decide(in Input) Decision {
	res := in.Resource

	switch {
	case res.RequiresAuth && !in.Authenticated:
		return RedirectLogin
	case res.RequiresAuth && !in.ProfileLoaded:
		return Pending
	case res.RequiresAuth && in.TrialExpired:
		return RedirectTrialExpired
	case res.RequiresAuth && !in.TOTPEnabled && !res.IsTOTPSetup:
		return RedirectTOTPSetup
	case res.RequiresTOTP && in.Authenticated && in.ProfileLoaded && in.TOTPEnabled && !in.TOTPVerifiedThisSession:
		return RedirectLogin
	default:
		return Allow
	}
}

// RedirectPath is the client route for a redirect decision, or "" for
// Allow and Pending.
func (d Decision) RedirectPath() string {
	switch d {
	case RedirectLogin:
		return LoginPath
	case RedirectTOTPSetup:
		return TOTPSetupPath
	case RedirectTrialExpired:
		return TrialExpiredPath
	default:
		return ""
	}
}

// StatusCode is the HTTP status Middleware answers a denied request with.
func (d Decision) StatusCode() int {
	switch d {
	case Allow:
		return http.StatusOK
	case RedirectLogin:
		return http.StatusUnauthorized
	case RedirectTOTPSetup, RedirectTrialExpired:
		return http.StatusForbidden
	default:
		return http.StatusServiceUnavailable
	}
}

func (d Decision) message() string {
	switch d {
	case RedirectLogin:
		return "Authentication required"
	case RedirectTOTPSetup:
		return "Two-factor setup required"
	case RedirectTrialExpired:
		return "Trial period has expired"
	case Pending:
		return "Profile is not available yet"
	default:
		return ""
	}
}
