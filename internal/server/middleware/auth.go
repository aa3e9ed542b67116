package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// identityKey is the context key under which the authenticated caller's
// identity string is stored.
type identityKey struct{}

// Identity returns the authenticated caller stored by Auth, or "" when the
// request was not authenticated.
func Identity(ctx context.Context) string {
	id, _ := ctx.Value(identityKey{}).(string)
	return id
}

// WithIdentity returns a context carrying the given caller identity. Exposed
// for handler tests.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// Auth returns middleware that resolves the caller's identity from an API
// key, supplied either as a Bearer token in the Authorization header or in
// the X-API-Key header. keys maps API keys to identities; adminKey, when
// set, authenticates as adminIdentity.
//
// If no keys are configured at all, authentication is disabled and requests
// pass through unauthenticated. Requests with an unknown key are rejected.
func Auth(keys map[string]string, adminKey, adminIdentity string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(keys) == 0 && adminKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				writeUnauthorized(w, "missing authentication token")
				return
			}

			if adminKey != "" && subtle.ConstantTimeCompare([]byte(token), []byte(adminKey)) == 1 {
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), adminIdentity)))
				return
			}

			if identity, ok := keys[token]; ok {
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
				return
			}

			writeUnauthorized(w, "invalid authentication token")
		})
	}
}

// extractToken looks for a token in the Authorization header (Bearer scheme)
// or in the X-API-Key header.
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if key := r.Header.Get("X-API-Key"); key != "" {
		return strings.TrimSpace(key)
	}

	return ""
}

// writeUnauthorized sends a 401 response with a JSON error body.
func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
