package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("GEMA_JWT_SECRET", "secret")
	t.Setenv("GEMA_DATABASE_URL", "postgres://localhost/gema")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "GEMA Mastery API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "openai", cfg.AIProvider)
	require.Equal(t, "gema:mastery", cfg.EventsChannel)
	require.Equal(t, 2*time.Minute, cfg.MasteryStatusCacheTTL)
	require.Equal(t, time.UTC, cfg.MasteryLocation)
	require.Equal(t, 5, cfg.GenerateRatePerMinute)
	require.Equal(t, "*", cfg.CORSAllowOrigins)
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("GEMA_JWT_SECRET", "secret")
	t.Setenv("GEMA_DATABASE_URL", "postgres://localhost/gema")
	t.Setenv("GEMA_AI_PROVIDER", "Anthropic")
	t.Setenv("GEMA_MASTERY_TIMEZONE", "Asia/Jakarta")
	t.Setenv("GEMA_MASTERY_STATUS_CACHE_TTL", "30s")
	t.Setenv("GEMA_APP_PORT", ":9090")
	t.Setenv("GEMA_CORS_ALLOW_ORIGINS", " https://app.gema.test ")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "anthropic", cfg.AIProvider)
	require.Equal(t, "Asia/Jakarta", cfg.MasteryLocation.String())
	require.Equal(t, 30*time.Second, cfg.MasteryStatusCacheTTL)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, "https://app.gema.test", cfg.CORSAllowOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("GEMA_DATABASE_URL", "postgres://localhost/gema")
	t.Setenv("GEMA_JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("GEMA_JWT_SECRET", "secret")
	t.Setenv("GEMA_MASTERY_TIMEZONE", "Mars/Olympus")
	_, err = Load()
	require.Error(t, err)
}
