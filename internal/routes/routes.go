package routes

import (
	"log/slog"

	"github.com/BradenHooton/useradmin/internal/auth"
	"github.com/BradenHooton/useradmin/internal/handlers"
	"github.com/BradenHooton/useradmin/internal/middleware"
	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/go-chi/chi/v5"
)

// RateLimits holds per-minute limits for the rate-limited route groups
type RateLimits struct {
	Admin  middleware.RateLimitConfig
	Verify middleware.RateLimitConfig
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *auth.TokenManager,
	users auth.UserLookup,
	limits RateLimits,
	logger *slog.Logger,
) {
	router.Get("/health", healthHandler.Health)

	router.Route("/api", func(r chi.Router) {
		// Public: the code itself is the credential
		r.With(middleware.RateLimitByIP(limits.Verify)).Post("/users/verify", userHandler.VerifyUser)

		// Admin-only routes
		r.Route("/admin/users", func(r chi.Router) {
			r.Use(auth.AuthMiddleware(tokenManager))
			r.Use(auth.RequireRole(users, models.RoleAdmin, logger))
			r.Use(middleware.RateLimitByActor(limits.Admin))

			r.Get("/", userHandler.ListUsers)
			r.Post("/", userHandler.CreateUser)
			r.Get("/{id}", userHandler.GetUser)
			r.Patch("/{id}", userHandler.UpdateUser)
		})
	})
}
