package access_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datumlabs/totpgate/svc/access"
)

var (
	protected = access.Resource{RequiresAuth: true}
	secure    = access.Resource{RequiresAuth: true, RequiresTOTP: true}
	setupPage = access.Resource{RequiresAuth: true, IsTOTPSetup: true}
	public    = access.Resource{}
)

func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   access.Input
		want access.Decision
	}{
		{
			name: "anonymous on protected route",
			in:   access.Input{Resource: protected},
			want: access.RedirectLogin,
		},
		{
			name: "anonymous on public route",
			in:   access.Input{Resource: public},
			want: access.Allow,
		},
		{
			name: "profile still loading",
			in:   access.Input{Authenticated: true, Resource: protected},
			want: access.Pending,
		},
		{
			name: "profile loading wins over trial expiry",
			in:   access.Input{Authenticated: true, TrialExpired: true, Resource: protected},
			want: access.Pending,
		},
		{
			name: "trial expired without two-factor goes to trial page, not setup",
			in:   access.Input{Authenticated: true, ProfileLoaded: true, TrialExpired: true, Resource: protected},
			want: access.RedirectTrialExpired,
		},
		{
			name: "trial expired on the setup page",
			in:   access.Input{Authenticated: true, ProfileLoaded: true, TrialExpired: true, Resource: setupPage},
			want: access.RedirectTrialExpired,
		},
		{
			name: "trial expired beats unverified session",
			in: access.Input{
				Authenticated: true, ProfileLoaded: true, TOTPEnabled: true, TrialExpired: true,
				Resource: secure,
			},
			want: access.RedirectTrialExpired,
		},
		{
			name: "two-factor not enabled",
			in:   access.Input{Authenticated: true, ProfileLoaded: true, Resource: protected},
			want: access.RedirectTOTPSetup,
		},
		{
			name: "setup page is reachable without two-factor",
			in:   access.Input{Authenticated: true, ProfileLoaded: true, Resource: setupPage},
			want: access.Allow,
		},
		{
			name: "enabled but session not verified",
			in:   access.Input{Authenticated: true, ProfileLoaded: true, TOTPEnabled: true, Resource: secure},
			want: access.RedirectLogin,
		},
		{
			name: "enabled and verified",
			in: access.Input{
				Authenticated: true, ProfileLoaded: true, TOTPEnabled: true, TOTPVerifiedThisSession: true,
				Resource: secure,
			},
			want: access.Allow,
		},
		{
			name: "verification not required",
			in:   access.Input{Authenticated: true, ProfileLoaded: true, TOTPEnabled: true, Resource: protected},
			want: access.Allow,
		},
		{
			name: "public route ignores trial",
			in:   access.Input{Authenticated: true, ProfileLoaded: true, TrialExpired: true, Resource: public},
			want: access.Allow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, access.Decide(tt.in))
		})
	}
}

func TestDecision_RedirectPathAndStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d      access.Decision
		path   string
		status int
	}{
		{access.Allow, "", http.StatusOK},
		{access.RedirectLogin, "/login", http.StatusUnauthorized},
		{access.RedirectTOTPSetup, "/totp-setup", http.StatusForbidden},
		{access.RedirectTrialExpired, "/trial-expired", http.StatusForbidden},
		{access.Pending, "", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.path, tt.d.RedirectPath(), tt.d)
		assert.Equal(t, tt.status, tt.d.StatusCode(), tt.d)
	}
}
