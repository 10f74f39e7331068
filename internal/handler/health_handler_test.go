package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-mastery-api/internal/config"
	"github.com/noah-isme/gema-mastery-api/internal/handler"
)

type healthEnvelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    handler.HealthResponse `json:"data"`
}

func runHealthCheck(t *testing.T, checks ...handler.DependencyCheck) (int, healthEnvelope) {
	t.Helper()
	cfg := config.Config{
		AppName: "GEMA Mastery API",
		AppEnv:  "test",
	}

	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(cfg, checks...))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil), -1)
	require.NoError(t, err)

	var payload healthEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp.StatusCode, payload
}

func healthy(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func TestHealthCheck(t *testing.T) {
	status, payload := runHealthCheck(t)

	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, payload.Success)
	assert.Equal(t, "ok", payload.Data.Status)
	assert.Equal(t, "GEMA Mastery API", payload.Data.Service)
	assert.Equal(t, "test", payload.Data.Environment)
	assert.Empty(t, payload.Data.Dependencies)
	assert.WithinDuration(t, time.Now().UTC(), payload.Data.Timestamp, 2*time.Second)
}

func TestHealthCheckDegradesOnOptionalDependency(t *testing.T) {
	status, payload := runHealthCheck(t,
		handler.DependencyCheck{Name: "database", Required: true, Check: healthy},
		handler.DependencyCheck{Name: "redis", Check: failing},
	)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "degraded", payload.Data.Status)
	assert.Equal(t, "service degraded", payload.Message)
	assert.Equal(t, map[string]string{"database": "up", "redis": "down"}, payload.Data.Dependencies)
}

func TestHealthCheckUnavailableWhenRequiredDependencyFails(t *testing.T) {
	status, payload := runHealthCheck(t,
		handler.DependencyCheck{Name: "redis", Check: failing},
		handler.DependencyCheck{Name: "database", Required: true, Check: failing},
	)

	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.False(t, payload.Success)
	assert.Equal(t, "unavailable", payload.Data.Status)
	assert.Equal(t, "down", payload.Data.Dependencies["database"])
}

func TestHealthCheckBoundsSlowDependencies(t *testing.T) {
	start := time.Now()
	status, payload := runHealthCheck(t, handler.DependencyCheck{
		Name:     "database",
		Required: true,
		Check: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "down", payload.Data.Dependencies["database"])
}
