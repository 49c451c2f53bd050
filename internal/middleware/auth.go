package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"

	"github.com/taskmind/taskmind/internal/database"
	"github.com/taskmind/taskmind/internal/request"
)

// Auth creates authentication middleware that validates HMAC-signed bearer
// tokens and resolves them to a user record, creating the user on first
// sight. The token must carry an email claim.
func Auth(secret string, users database.UserRepositoryInterface, logger *zap.Logger) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondAuthError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondAuthError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			token, err := jwt.Parse([]byte(parts[1]),
				jwt.WithKey(jwa.HS256, key),
				jwt.WithValidate(true),
			)
			if err != nil {
				logger.Warn("token_verification_failed", zap.Error(err))
				respondAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			email, _ := token.PrivateClaims()["email"].(string)
			if email == "" {
				respondAuthError(w, http.StatusUnauthorized, "Token missing email claim")
				return
			}

			var name *string
			if n, ok := token.PrivateClaims()["name"].(string); ok && n != "" {
				name = &n
			}

			ctx := r.Context()
			user, err := users.GetOrCreateByEmail(ctx, email, name)
			if err != nil {
				logger.Error("user_resolution_failed", zap.Error(err))
				respondAuthError(w, http.StatusInternalServerError, "Database error")
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

func respondAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	// Encoding a flat map cannot realistically fail; ignore the error
	_ = json.NewEncoder(w).Encode(response)
}
