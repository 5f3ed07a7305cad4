package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-api/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-api/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Tickets     *handlers.TicketsHandler
	Comments    *handlers.CommentsHandler
	Idempotency fiber.Handler
}

// RegisterRoutes wires HTTP routes under the /api prefix.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	api := app.Group("/api")

	api.Get("/health", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	// POST replay interception sits between optional auth and the per-route
	// auth guards.
	api.Use(cfg.Idempotency)

	api.Post("/register", cfg.Auth.Register)
	api.Post("/login", cfg.Auth.Login)

	tickets := api.Group("/tickets", auth.Required())
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Post("/:id/comments", cfg.Comments.Create)

	app.Use(NotFoundHandler())
}
