package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/taskmind/taskmind/internal/models"
)

// contextKey keeps request-scoped values from colliding with other packages
type contextKey string

const userContextKey contextKey = "user"

// UserContextKey exposes the key so tests can plant arbitrary values
func UserContextKey() contextKey { return userContextKey }

// WithUser attaches the authenticated user to the context
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext pulls the authenticated user out of the request. Returns
// nil when nothing was attached or the stored value has the wrong type.
func UserFromContext(r *http.Request) *models.User {
	user, _ := r.Context().Value(userContextKey).(*models.User)
	return user
}

// ClientIP resolves the caller's address for rate limiting. Proxy headers
// win over the socket address: the first X-Forwarded-For hop, then
// X-Real-IP, then RemoteAddr.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	return r.RemoteAddr
}
