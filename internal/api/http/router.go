package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/claimdesk/claim-service/internal/api/http/handlers"
	"github.com/claimdesk/claim-service/internal/auth"
	apperrors "github.com/claimdesk/claim-service/pkg/util/errorutil"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Auth           *handlers.AuthHandler
	Claims         *handlers.ClaimsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/token", cfg.Auth.IssueToken)

	app.Get("/metrics", cfg.AuthMiddleware.Handle, auth.RequireActor(auth.StaffActors...), cfg.Metrics.Snapshot)

	claims := app.Group("/claims", cfg.AuthMiddleware.Handle, auth.RequireAnyActor())
	claims.Post("/", cfg.Claims.OpenClaim)
	claims.Get("/", cfg.Claims.ListClaims)
	claims.Get("/:id", cfg.Claims.GetClaim)
	claims.Patch("/:id", cfg.Claims.AmendClaim)
	claims.Get("/:id/timeline", cfg.Claims.Timeline)
	claims.Post("/:id/actions/:action", cfg.Claims.ApplyAction)

	// Registered last so it only sees requests no route matched.
	app.Use(func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("route", map[string]any{"method": c.Method(), "path": c.Path()})
	})
}
