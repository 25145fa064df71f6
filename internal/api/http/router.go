package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/evaluation-service/internal/api/http/handlers"
	"github.com/spec-kit/evaluation-service/internal/auth"
	"github.com/spec-kit/evaluation-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Evaluations    *handlers.EvaluationsHandler
	HR             *handlers.HRHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	authn := cfg.AuthMiddleware.Handle

	evaluations := app.Group("/evaluations", authn)
	evaluations.Post("", auth.RequireRole(domain.RoleManager), cfg.Evaluations.Create)
	evaluations.Get("/:id", auth.RequireAnyRole(), cfg.Evaluations.Get)
	evaluations.Post("/:id/intern-feedback", auth.RequireRole(domain.RoleIntern), cfg.Evaluations.SubmitFeedback)
	evaluations.Post("/:id/hr-review", auth.RequireRole(domain.RoleHR), cfg.Evaluations.SubmitReview)
	evaluations.Post("/:id/report", auth.RequireRole(domain.RoleManager, domain.RoleHR), cfg.Evaluations.GenerateReport)

	app.Get("/manager/evaluations", authn, auth.RequireRole(domain.RoleManager), cfg.Evaluations.ListManager)
	app.Get("/intern/evaluations", authn, auth.RequireRole(domain.RoleIntern), cfg.Evaluations.ListIntern)

	hr := app.Group("/hr", authn, auth.RequireRole(domain.RoleHR))
	hr.Get("/evaluations", cfg.Evaluations.ListHR)
	hr.Get("/evaluations/export", cfg.HR.ExportXLSX)
	hr.Get("/users", cfg.HR.Users)
	hr.Post("/users/toggle", cfg.HR.ToggleUser)
}
