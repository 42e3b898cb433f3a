package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/http/handlers"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/domain"
)

// RouteConfig bundles handlers and middleware for route registration.
type RouteConfig struct {
	Auth       *handlers.AuthHandler
	Grievances *handlers.GrievancesHandler
	Stats      *handlers.StatsHandler
	Admin      *handlers.AdminHandler
	Health     *handlers.HealthHandler
	AuthMW     *auth.AuthMiddleware
}

// RegisterRoutes mounts the HTTP surface.
func RegisterRoutes(app *fiber.App, rc RouteConfig) {
	health := app.Group("/health")
	health.Get("/live", rc.Health.Live)
	health.Get("/ready", rc.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", rc.Auth.Register)
	authGroup.Post("/login", rc.Auth.Login)

	// Tracking is public; submission takes an optional token so students can
	// file anonymously or under their account.
	app.Get("/track/:ticketID", rc.Grievances.Track)
	app.Post("/grievances", rc.AuthMW.Optional, rc.Grievances.Create)

	grievances := app.Group("/grievances", rc.AuthMW.Handle)
	grievances.Get("/", rc.Grievances.List)
	grievances.Get("/:id", rc.Grievances.Get)
	grievances.Patch("/:id/status", auth.RequireRole(domain.RoleAuthority, domain.RoleAdmin), rc.Grievances.UpdateStatus)
	grievances.Post("/:id/reassign", auth.RequireRole(domain.RoleAdmin), rc.Grievances.Reassign)
	grievances.Post("/:id/escalate", auth.RequireRole(domain.RoleStudent, domain.RoleAdmin), rc.Grievances.Escalate)
	grievances.Post("/:id/feedback", auth.RequireRole(domain.RoleStudent, domain.RoleAdmin), rc.Grievances.Feedback)

	stats := app.Group("/stats", rc.AuthMW.Handle)
	stats.Get("/dashboard", rc.Stats.Dashboard)
	stats.Get("/charts", rc.Stats.Charts)

	admin := app.Group("/admin", rc.AuthMW.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", rc.Admin.ListUsers)
}
