// Package api holds the HTTP handlers exposed by `rosterplan serve`.
package api

import (
	"crypto/subtle"
	"net/http"
)

// RequireBearer rejects requests lacking "Authorization: Bearer <token>".
// An empty token disables the check.
func RequireBearer(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	want := []byte("Bearer " + token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
