package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"shelflife-api/pkg/apierror"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// APIKey guards the API when non-empty. An empty key disables auth,
	// which is the expected mode for a purely local deployment.
	APIKey string
}

// NewAuthMiddleware creates an API-key authentication middleware with
// injected configuration.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.APIKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			// Health check endpoints stay open for probes.
			if r.URL.Path == "/api/v1/health" || r.URL.Path == "/api/v1/ready" {
				next.ServeHTTP(w, r)
				return
			}
			if strings.HasPrefix(r.URL.Path, "/api/status") {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.APIKey)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write(apierror.Unauthorized("invalid or missing API key").ToJSON())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
