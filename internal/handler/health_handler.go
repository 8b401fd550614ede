package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-code-evaluator/internal/config"
	"github.com/noah-isme/gema-code-evaluator/internal/utils"
)

// Dependency states reported by the health endpoint.
const (
	DependencyUp       = "up"
	DependencyDown     = "down"
	DependencyDisabled = "disabled"
)

// HealthProbe reports whether an optional dependency is reachable.
type HealthProbe func(ctx context.Context) error

// HealthDependencies groups the probes for optional backing services. A nil
// probe means the dependency is not configured.
type HealthDependencies struct {
	Database HealthProbe
	Cache    HealthProbe
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Database    string    `json:"database"`
	Cache       string    `json:"cache"`
}

// HealthCheck returns a handler that reports application health information.
// Analysis never depends on the backing services, so the service stays "ok"
// while they are down.
func HealthCheck(cfg config.Config, deps HealthDependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Database:    probeStatus(ctx, deps.Database),
			Cache:       probeStatus(ctx, deps.Cache),
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}

func probeStatus(ctx context.Context, probe HealthProbe) string {
	if probe == nil {
		return DependencyDisabled
	}
	if err := probe(ctx); err != nil {
		return DependencyDown
	}
	return DependencyUp
}
