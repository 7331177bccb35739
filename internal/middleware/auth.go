package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type contextKey string

const (
	AdjusterKey contextKey = "adjuster"
	APIKeyKey   contextKey = "api_key"
)

// APIKeyAuth validates API key from Authorization header and resolves
// the adjuster it belongs to. Claims are scoped per adjuster downstream.
func APIKeyAuth(validKeys map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for health check and backend webhooks
			if r.URL.Path == "/health" || strings.HasPrefix(r.URL.Path, "/v1/webhooks/") {
				next.ServeHTTP(w, r)
				return
			}

			// Extract API key from Authorization header
			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}

			// Support both "Bearer <key>" and "<key>" formats
			apiKey := strings.TrimPrefix(auth, "Bearer ")
			apiKey = strings.TrimSpace(apiKey)

			if apiKey == "" {
				http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			// Validate API key (constant-time comparison to prevent timing attacks)
			valid := false
			var adjuster string
			for a, key := range validKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					valid = true
					adjuster = a
					break
				}
			}

			if !valid {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}

			// Store adjuster in context
			ctx := context.WithValue(r.Context(), AdjusterKey, adjuster)
			ctx = context.WithValue(ctx, APIKeyKey, apiKey)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdjusterFromContext extracts the authenticated adjuster from context
func GetAdjusterFromContext(ctx context.Context) string {
	if adjuster, ok := ctx.Value(AdjusterKey).(string); ok {
		return adjuster
	}
	return ""
}
