package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datumlabs/totpgate/pkg/handler"
)

type tokenRequest struct {
	Token string `json:"token"`
}

var errDomain = errors.New("code rejected")

func mapDomain(err error) (handler.HTTPError, bool) {
	if errors.Is(err, errDomain) {
		return handler.NewHTTPError(http.StatusUnprocessableEntity, "Invalid TOTP code").With("trial_expired", false), true
	}
	return handler.HTTPError{}, false
}

func echo(ctx handler.Context, req tokenRequest) handler.Response {
	switch req.Token {
	case "fail":
		return handler.Fail(errDomain)
	case "boom":
		return handler.Fail(errors.New("db down"))
	case "nil":
		return nil
	}
	return handler.Success(map[string]any{"token": req.Token})
}

func do(t *testing.T, h http.Handler, contentType, body string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestWrap(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(echo,
		handler.WithBinder[tokenRequest](handler.BindJSON()),
		handler.WithErrorMapper[tokenRequest](mapDomain),
	)

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantSuccess bool
		wantError   string
	}{
		{"success", "application/json", `{"token":"123456"}`, http.StatusOK, true, ""},
		{"charset accepted", "application/json; charset=utf-8", `{"token":"1"}`, http.StatusOK, true, ""},
		{"mapped domain error", "application/json", `{"token":"fail"}`, http.StatusUnprocessableEntity, false, "Invalid TOTP code"},
		{"unmapped error hidden", "application/json", `{"token":"boom"}`, http.StatusInternalServerError, false, "Internal server error"},
		{"nil response", "application/json", `{"token":"nil"}`, http.StatusInternalServerError, false, "Internal server error"},
		{"unknown field", "application/json", `{"code":"1"}`, http.StatusBadRequest, false, "Invalid request"},
		{"malformed", "application/json", `{"token":`, http.StatusBadRequest, false, "Invalid request"},
		{"trailing data", "application/json", `{"token":"1"}{"token":"2"}`, http.StatusBadRequest, false, "Invalid request"},
		{"empty body", "application/json", ``, http.StatusBadRequest, false, "Invalid request"},
		{"missing content type", "", `{"token":"1"}`, http.StatusUnsupportedMediaType, false, "Content-Type must be application/json"},
		{"wrong content type", "text/plain", `{"token":"1"}`, http.StatusUnsupportedMediaType, false, "Content-Type must be application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status, body := do(t, h, tt.contentType, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantSuccess, body["success"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			}
		})
	}
}

func TestWrap_ErrorFieldsMerged(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(echo,
		handler.WithBinder[tokenRequest](handler.BindJSON()),
		handler.WithErrorMapper[tokenRequest](mapDomain),
	)
	_, body := do(t, h, "application/json", `{"token":"fail"}`)
	assert.Equal(t, false, body["trial_expired"])
}

func TestBindJSON_TooLarge(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(echo, handler.WithBinder[tokenRequest](handler.BindJSON()))
	big := `{"token":"` + strings.Repeat("a", handler.MaxJSONSize) + `"}`
	status, _ := do(t, h, "application/json", big)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, handler.ErrUnauthorized, handler.Classify(handler.ErrUnauthorized))
	assert.Equal(t, handler.ErrInternal, handler.Classify(errors.New("x")))
	assert.Equal(t, http.StatusUnprocessableEntity, handler.Classify(errDomain, nil, mapDomain).Code)
}

func TestHTTPError_WithCopies(t *testing.T) {
	t.Parallel()

	base := handler.NewHTTPError(http.StatusForbidden, "Trial expired")
	ext := base.With("trial_expired", true)

	assert.Nil(t, base.Fields)
	assert.Equal(t, true, ext.Fields["trial_expired"])
	assert.Equal(t, "Trial expired", ext.Error())
	assert.Equal(t, "Not Found", handler.HTTPError{Code: http.StatusNotFound}.Error())
}
