package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
)

// ErrNoUser is returned when a request carries no authenticated user.
var ErrNoUser = errors.New("no authenticated user on request")

// UserID extracts the authenticated user from the X-User-ID header, which
// the upstream auth proxy injects after validating the caller's token.
// Authentication itself happens outside this service.
func UserID(r *http.Request) (int64, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return 0, ErrNoUser
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrNoUser
	}
	return id, nil
}

// RequireUser rejects requests without an authenticated user header.
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := UserID(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// RequireDeviceKey guards the device ingestion endpoint with the shared
// device API key. An empty configured key disables the check (development).
func RequireDeviceKey(apiKey string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if apiKey != "" {
			presented := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}
