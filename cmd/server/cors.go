package main

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

const corsAllowHeaders = "authorization, x-client-info, apikey, content-type"

// cors allows browser clients on origin to call the API and answers
// preflight requests directly.
func cors(origin string) func(http.Handler) http.Handler {
	allowOrigin := middleware.SetHeader("Access-Control-Allow-Origin", origin)
	allowHeaders := middleware.SetHeader("Access-Control-Allow-Headers", corsAllowHeaders)
	allowMethods := middleware.SetHeader("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

	return func(next http.Handler) http.Handler {
		preflight := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				_, _ = w.Write([]byte("ok"))
				return
			}
			next.ServeHTTP(w, r)
		})
		return allowOrigin(allowHeaders(allowMethods(preflight)))
	}
}
