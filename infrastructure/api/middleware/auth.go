package middleware

import (
	"crypto/subtle"
	"net/http"
)

// AuthConfig configures API key authentication.
// An empty key set disables authentication entirely.
type AuthConfig struct {
	keys []string
}

// NewAuthConfigWithKeys creates an AuthConfig accepting the given keys.
func NewAuthConfigWithKeys(keys []string) AuthConfig {
	return AuthConfig{keys: keys}
}

// Enabled reports whether authentication is enforced.
func (c AuthConfig) Enabled() bool {
	return len(c.keys) > 0
}

// validKey checks the presented key against the configured set in
// constant time.
func (c AuthConfig) validKey(presented string) bool {
	for _, key := range c.keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(presented)) == 1 {
			return true
		}
	}
	return false
}

// WriteProtect returns a middleware that requires a valid X-API-KEY header
// on mutating methods (POST, PUT, PATCH, DELETE). Safe methods (GET, HEAD,
// OPTIONS) always pass. With no keys configured, everything passes.
func WriteProtect(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			if !config.validKey(r.Header.Get("X-API-KEY")) {
				WriteJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid or missing API key"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WriteProtectAuth is a convenience wrapper building the AuthConfig from
// a key list.
func WriteProtectAuth(keys []string) func(http.Handler) http.Handler {
	return WriteProtect(NewAuthConfigWithKeys(keys))
}
