package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"seocoach-backend/internal/auth"
	"seocoach-backend/pkg/httputil"

	"github.com/golang-jwt/jwt/v5"
)

// --- JWT Middleware ---

// JwtAuthMiddleware verifies the JWT token from the Authorization header.
// If valid, it injects the user id and identity into the request context.
func JwtAuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return jwtMiddleware(jwtSecret, true)
}

// OptionalJwtMiddleware lets anonymous requests through. A token that is
// present must still be valid.
func OptionalJwtMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return jwtMiddleware(jwtSecret, false)
}

func jwtMiddleware(jwtSecret string, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				httputil.RespondError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				slog.DebugContext(r.Context(), "malformed authorization header")
				httputil.RespondError(w, http.StatusUnauthorized, "Malformed Authorization header (Expected: Bearer <token>)")
				return
			}

			claims, err := auth.ParseAccessToken(parts[1], jwtSecret)
			if err != nil {
				slog.DebugContext(r.Context(), "rejected access token", "error", err)
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					httputil.RespondError(w, http.StatusUnauthorized, "Token has expired")
				case errors.Is(err, jwt.ErrTokenMalformed):
					httputil.RespondError(w, http.StatusUnauthorized, "Malformed token")
				case errors.Is(err, auth.ErrMissingClaims):
					httputil.RespondError(w, http.StatusUnauthorized, "Invalid token claims (missing user)")
				default:
					httputil.RespondError(w, http.StatusUnauthorized, "Invalid token")
				}
				return
			}

			ctx := auth.WithUser(r.Context(), claims.UserID, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
