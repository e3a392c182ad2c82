package routes

import (
	"github.com/BradenHooton/realmadmin/internal/auth"
	"github.com/BradenHooton/realmadmin/internal/handlers"
	"github.com/BradenHooton/realmadmin/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// Handlers groups the HTTP handlers served by the API
type Handlers struct {
	Users *handlers.UserHandler
	Email *handlers.EmailHandler
	Admin *handlers.AdminHandler
	Auth  *handlers.AuthHandler
}

// Limits holds the per-minute request budgets
type Limits struct {
	TokenPerMinute int
	AdminPerMinute int
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, tokenManager *auth.TokenManager, limits Limits) {
	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestsPerMinute: limits.TokenPerMinute,
	})).Post("/auth/token", h.Auth.Token)

	// Admin routes - admin access token required
	router.Route("/admin/realms/{realm}", func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager))
		r.Use(auth.RequireRole(auth.RoleAdmin))
		r.Use(middleware.RateLimitByClient(middleware.RateLimitConfig{
			RequestsPerMinute: limits.AdminPerMinute,
		}))

		r.Get("/users", h.Users.ListUsers)
		r.Get("/users/{id}", h.Users.GetUser)
		r.Put("/users/{id}/execute-actions-email", h.Email.ExecuteActionsEmail)
		r.Post("/users/{id}/send-email", h.Email.SendUserEmail)
		r.Post("/send-email", h.Email.SendRealmEmail)
		r.Get("/statistics/users", h.Admin.GetUserStatistics)
	})
}
