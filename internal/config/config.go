package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName               string
	AppEnv                string
	AppPort               string
	DatabaseURL           string
	RedisURL              string
	NATSURL               string
	EventsChannel         string
	JWTSecret             string
	AIProvider            string
	OpenAIAPIKey          string
	AnthropicAPIKey       string
	GenerationModel       string
	GradingModel          string
	MasteryLocation       *time.Location
	MasteryStatusCacheTTL time.Duration
	GenerateRatePerMinute int
	CORSAllowOrigins      string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Mastery API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.channel", "gema:mastery")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("mastery.timezone", "UTC")
	v.SetDefault("mastery.status_cache_ttl", "2m")
	v.SetDefault("ratelimit.generate_per_minute", 5)
	v.SetDefault("cors.allow_origins", "*")

	ttlString := v.GetString("mastery.status_cache_ttl")
	if ttlString == "" {
		ttlString = "2m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid mastery status cache ttl: %w", err)
	}

	location, err := time.LoadLocation(v.GetString("mastery.timezone"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid mastery timezone: %w", err)
	}

	cfg := Config{
		AppName:               v.GetString("app.name"),
		AppEnv:                v.GetString("app.env"),
		AppPort:               v.GetString("app.port"),
		DatabaseURL:           v.GetString("database.url"),
		RedisURL:              v.GetString("redis.url"),
		NATSURL:               v.GetString("nats.url"),
		EventsChannel:         v.GetString("events.channel"),
		JWTSecret:             v.GetString("jwt.secret"),
		AIProvider:            strings.ToLower(v.GetString("ai.provider")),
		OpenAIAPIKey:          v.GetString("openai_api_key"),
		AnthropicAPIKey:       v.GetString("anthropic_api_key"),
		GenerationModel:       v.GetString("ai.generation_model"),
		GradingModel:          v.GetString("ai.grading_model"),
		MasteryLocation:       location,
		MasteryStatusCacheTTL: ttl,
		GenerateRatePerMinute: v.GetInt("ratelimit.generate_per_minute"),
		CORSAllowOrigins:      strings.TrimSpace(v.GetString("cors.allow_origins")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.GenerateRatePerMinute <= 0 {
		cfg.GenerateRatePerMinute = 5
	}

	return cfg, nil
}
