package jwt

import (
	"net/http"
	"strings"

	"github.com/datumlabs/totpgate/pkg/handler"
)

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// Middleware rejects requests without a valid bearer token with 401 and
// stores the Identity in the request context otherwise.
func Middleware(s *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				_ = handler.WriteError(w, handler.ErrUnauthorized)
				return
			}
			claims, err := s.Parse(token)
			if err != nil {
				_ = handler.WriteError(w, handler.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Identity())))
		})
	}
}

// Optional behaves like Middleware but lets unauthenticated requests
// through without an Identity. The access gate uses it to tell anonymous
// callers apart from bad tokens.
func Optional(s *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := s.Parse(token)
			if err != nil {
				_ = handler.WriteError(w, handler.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Identity())))
		})
	}
}
