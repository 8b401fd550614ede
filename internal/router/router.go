package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-code-evaluator/internal/config"
	"github.com/noah-isme/gema-code-evaluator/internal/handler"
	"github.com/noah-isme/gema-code-evaluator/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EvaluationHandler *handler.EvaluationHandler
	Health            handler.HealthDependencies
	RateLimiter       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Health))

	app.Get("/metrics", observability.MetricsHandler())

	if deps.EvaluationHandler != nil {
		var limiters []fiber.Handler
		if deps.RateLimiter != nil {
			limiters = append(limiters, deps.RateLimiter)
		}

		// unversioned route kept for existing clients
		deps.EvaluationHandler.Register(app.Group("/evaluate"), limiters...)
		deps.EvaluationHandler.Register(api.Group("/evaluate"), limiters...)
		deps.EvaluationHandler.RegisterHistory(api)
	}

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}
}
