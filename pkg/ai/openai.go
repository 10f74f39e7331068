package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OpenAIConfig defines configuration options for the OpenAI collaborators.
type OpenAIConfig struct {
	APIKey          string
	GenerationModel string
	GradingModel    string
	MaxTokens       int
	Temperature     float32
	BaseURL         string
	Logger          zerolog.Logger
}

// OpenAIClient implements ContentGenerator and Judge against the chat completion API.
type OpenAIClient struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIClient builds a new client using the provided configuration.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.GenerationModel == "" {
		cfg.GenerationModel = "gpt-4o-mini"
	}
	if cfg.GradingModel == "" {
		cfg.GradingModel = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-mastery-api/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "openai_client").Logger(),
	}, nil
}

// GenerateQuestions asks the model for assessment questions and parses them strictly.
func (c *OpenAIClient) GenerateQuestions(ctx context.Context, req QuestionRequest) ([]GeneratedQuestion, error) {
	content, err := c.complete(ctx, operationGenerate, c.cfg.GenerationModel, c.cfg.MaxTokens, generatorSystemPrompt(), buildQuestionPrompt(req))
	if err != nil {
		return nil, err
	}

	questions, err := ParseQuestions(content)
	if err != nil {
		aiFailures.WithLabelValues("openai", operationGenerate).Inc()
		c.logger.Warn().Err(err).Msg("generator returned malformed questions")
		return nil, err
	}
	return questions, nil
}

// Judge asks the grading model whether a short answer is correct.
func (c *OpenAIClient) Judge(ctx context.Context, input JudgeInput) (Judgment, error) {
	content, err := c.complete(ctx, operationJudge, c.cfg.GradingModel, 256, judgeSystemPrompt(), buildJudgePrompt(input))
	if err != nil {
		return Judgment{}, err
	}

	judgment, err := ParseJudgment(content)
	if err != nil {
		aiFailures.WithLabelValues("openai", operationJudge).Inc()
		return Judgment{}, err
	}
	return judgment, nil
}

func (c *OpenAIClient) complete(parent context.Context, operation, model string, maxTokens int, system, user string) (string, error) {
	ctx, span := c.tracer.Start(parent, "openai."+operation, trace.WithAttributes(
		attribute.String("model", model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: user,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := c.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues("openai", operation).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues("openai", operation).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("openai %s: %w", operation, err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("%w: no choices returned from openai", ErrMalformedContent)
		aiFailures.WithLabelValues("openai", operation).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("usage.total_tokens", resp.Usage.TotalTokens))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
