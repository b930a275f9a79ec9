/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - API Tokens
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package auth

import (
	"context"
	"net/http"
	"strings"

	"kiosk-assistant/internal/logging"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClientIDContextKey holds the authenticated client ID
	ClientIDContextKey contextKey = "client_id"

	// HealthCheckPath bypasses authentication
	HealthCheckPath = "/health"
)

var logger = logging.For("auth")

// ClientIDFromContext returns the authenticated client ID, or "" for
// unauthenticated requests
func ClientIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ClientIDContextKey).(string); ok {
		return id
	}
	return ""
}

// Middleware creates an HTTP middleware that validates bearer tokens
func Middleware(store *TokenStore, enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled || r.URL.Path == HealthCheckPath {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid Authorization header format. Expected: Bearer <token>", http.StatusUnauthorized)
				return
			}

			clientID, err := store.Authenticate(parts[1])
			if err != nil {
				// Details stay in the log
				logger.Warn("token rejected", "error", err, "remote", r.RemoteAddr)
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			if clientID == "" {
				http.Error(w, "Invalid or unknown token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClientIDContextKey, clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
