package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/useradmin/internal/models"
	pkghttp "github.com/BradenHooton/useradmin/pkg/http"
	"github.com/BradenHooton/useradmin/pkg/logger"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing user claims in context
	UserContextKey contextKey = "user"
)

// UserLookup resolves the caller's current record.
type UserLookup interface {
	ByID(ctx context.Context, id string) (*models.User, bool, error)
}

// AuthMiddleware validates bearer tokens and injects the claims into context
func AuthMiddleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := tm.ValidateToken(strings.TrimSpace(tokenString))
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			ctx = logger.WithActor(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole enforces that the caller currently holds role. The role is
// read from storage on every request so demotions take effect immediately.
func RequireRole(users UserLookup, role string, log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Must be used after AuthMiddleware
			claims := GetUserFromContext(r)
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "unauthorized")
				return
			}

			user, found, err := users.ByID(r.Context(), claims.UserID)
			if err != nil {
				log.Error("failed to load caller", slog.String("user_id", claims.UserID), slog.Any("error", err))
				pkghttp.WriteServiceUnavailable(w, "unable to verify permissions")
				return
			}
			if !found {
				pkghttp.WriteUnauthorized(w, "user not found")
				return
			}

			if user.Role != role {
				log.Warn("insufficient role",
					slog.String("user_id", claims.UserID),
					slog.String("required", role),
					slog.String("path", r.URL.Path))
				pkghttp.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
