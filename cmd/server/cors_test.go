package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	called := false
	h := cors("*")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/totp/setup", nil))
	assert.False(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, corsAllowHeaders, rec.Header().Get("Access-Control-Allow-Headers"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/totp/setup", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAppConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := appConfig{SessionFlagBackend: "redis", JanitorInterval: 1}
	assert.NoError(t, cfg.Validate())

	cfg.SessionFlagBackend = "memcached"
	assert.Error(t, cfg.Validate())

	cfg = appConfig{SessionFlagBackend: "memory"}
	assert.Error(t, cfg.Validate())
}
