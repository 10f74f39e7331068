package ai

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Settings selects and configures the AI provider.
type Settings struct {
	Provider        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GenerationModel string
	GradingModel    string
	Logger          zerolog.Logger
}

// NewFromSettings builds the resilient collaborators for the configured provider.
// A missing API key yields a wrapper whose calls report ErrUnavailable.
func NewFromSettings(settings Settings) (*Resilient, error) {
	provider := strings.ToLower(strings.TrimSpace(settings.Provider))
	if provider == "" {
		provider = "openai"
	}

	resilientCfg := ResilientConfig{Provider: provider, Logger: settings.Logger}

	switch provider {
	case "openai":
		if settings.OpenAIAPIKey == "" {
			settings.Logger.Warn().Msg("openai api key not configured, ai collaborators disabled")
			return NewResilient(nil, nil, resilientCfg), nil
		}
		client, err := NewOpenAIClient(OpenAIConfig{
			APIKey:          settings.OpenAIAPIKey,
			GenerationModel: settings.GenerationModel,
			GradingModel:    settings.GradingModel,
			Temperature:     0.2,
			Logger:          settings.Logger,
		})
		if err != nil {
			return nil, err
		}
		return NewResilient(client, client, resilientCfg), nil
	case "anthropic":
		if settings.AnthropicAPIKey == "" {
			settings.Logger.Warn().Msg("anthropic api key not configured, ai collaborators disabled")
			return NewResilient(nil, nil, resilientCfg), nil
		}
		client, err := NewAnthropicClient(AnthropicConfig{
			APIKey:          settings.AnthropicAPIKey,
			GenerationModel: settings.GenerationModel,
			GradingModel:    settings.GradingModel,
			Logger:          settings.Logger,
		})
		if err != nil {
			return nil, err
		}
		return NewResilient(client, client, resilientCfg), nil
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", settings.Provider)
	}
}
