package access_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datumlabs/totpgate/svc/access"
)

func serve(t *testing.T, resolve access.StateResolver, res access.Resource, opts ...access.Option) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	called := false
	h := access.Middleware(resolve, res, opts...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	return rec, called
}

func fixed(in access.Input) access.StateResolver {
	return func(*http.Request) (access.Input, error) { return in, nil }
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("allows verified session", func(t *testing.T) {
		t.Parallel()

		rec, called := serve(t, fixed(access.Input{
			Authenticated: true, ProfileLoaded: true, TOTPEnabled: true, TOTPVerifiedThisSession: true,
		}), secure)
		assert.True(t, called)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("resolver cannot override resource", func(t *testing.T) {
		t.Parallel()

		rec, called := serve(t, fixed(access.Input{
			Authenticated: true, ProfileLoaded: true, TOTPEnabled: true,
			Resource: access.Resource{},
		}), secure)
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("trial expired body", func(t *testing.T) {
		t.Parallel()

		rec, called := serve(t, fixed(access.Input{
			Authenticated: true, ProfileLoaded: true, TrialExpired: true,
		}), protected)
		require.False(t, called)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Trial period has expired", body["error"])
		assert.Equal(t, "redirect_trial_expired", body["decision"])
		assert.Equal(t, "/trial-expired", body["redirect"])
		assert.Equal(t, true, body["trial_expired"])
	})

	t.Run("setup redirect", func(t *testing.T) {
		t.Parallel()

		rec, _ := serve(t, fixed(access.Input{Authenticated: true, ProfileLoaded: true}), protected)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "/totp-setup", body["redirect"])
	})

	t.Run("resolver failure is pending", func(t *testing.T) {
		t.Parallel()

		resolve := func(*http.Request) (access.Input, error) {
			return access.Input{Authenticated: true, ProfileLoaded: true, TrialExpired: true}, errors.New("db down")
		}
		rec, called := serve(t, resolve, protected)
		assert.False(t, called)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	})

	t.Run("custom deny handler", func(t *testing.T) {
		t.Parallel()

		var got access.Decision
		deny := access.WithDenyHandler(func(w http.ResponseWriter, r *http.Request, d access.Decision) {
			got = d
			http.Redirect(w, r, d.RedirectPath(), http.StatusFound)
		})
		rec, _ := serve(t, fixed(access.Input{}), protected, deny)
		assert.Equal(t, access.RedirectLogin, got)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})
}
