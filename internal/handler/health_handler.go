package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-mastery-api/internal/config"
	"github.com/noah-isme/gema-mastery-api/internal/utils"
)

const dependencyCheckTimeout = 2 * time.Second

// DependencyCheck reports whether one backing service answers. Required dependencies turn a
// failure into 503; optional ones (cache, event transports) only mark the service degraded.
type DependencyCheck struct {
	Name     string
	Required bool
	Check    func(ctx context.Context) error
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Environment  string            `json:"environment"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// HealthCheck reports "ok", "degraded" or "unavailable" along with each dependency's state.
func HealthCheck(cfg config.Config, checks ...DependencyCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		if len(checks) > 0 {
			payload.Dependencies = make(map[string]string, len(checks))
		}
		for _, check := range checks {
			ctx, cancel := context.WithTimeout(c.UserContext(), dependencyCheckTimeout)
			err := check.Check(ctx)
			cancel()

			if err == nil {
				payload.Dependencies[check.Name] = "up"
				continue
			}
			payload.Dependencies[check.Name] = "down"
			switch {
			case check.Required:
				payload.Status = "unavailable"
			case payload.Status == "ok":
				payload.Status = "degraded"
			}
		}

		if payload.Status == "unavailable" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.APIResponse{
				Success: false,
				Data:    payload,
				Message: "service unavailable",
			})
		}
		return utils.SendSuccess(c, "service "+payload.Status, payload)
	}
}
