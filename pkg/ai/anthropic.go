package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var anthropicModels = map[string]string{
	"claude-sonnet": "claude-sonnet-4-20250514",
	"claude-haiku":  "claude-haiku-4-5-20251001",
}

// AnthropicConfig configures the Anthropic collaborators.
type AnthropicConfig struct {
	APIKey          string
	GenerationModel string
	GradingModel    string
	MaxTokens       int
	Logger          zerolog.Logger
}

// AnthropicClient implements ContentGenerator and Judge against the Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	cfg    AnthropicConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewAnthropicClient constructs a client.
func NewAnthropicClient(cfg AnthropicConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = "claude-sonnet"
	}
	if cfg.GradingModel == "" {
		cfg.GradingModel = "claude-haiku"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}
	cfg.GenerationModel = resolveModel(cfg.GenerationModel)
	cfg.GradingModel = resolveModel(cfg.GradingModel)

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))

	return &AnthropicClient{
		client: &client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-mastery-api/pkg/ai/anthropic"),
		logger: cfg.Logger.With().Str("component", "anthropic_client").Logger(),
	}, nil
}

// GenerateQuestions asks the model for assessment questions and parses them strictly.
func (c *AnthropicClient) GenerateQuestions(ctx context.Context, req QuestionRequest) ([]GeneratedQuestion, error) {
	content, err := c.complete(ctx, operationGenerate, c.cfg.GenerationModel, c.cfg.MaxTokens, generatorSystemPrompt(), buildQuestionPrompt(req))
	if err != nil {
		return nil, err
	}

	questions, err := ParseQuestions(content)
	if err != nil {
		aiFailures.WithLabelValues("anthropic", operationGenerate).Inc()
		c.logger.Warn().Err(err).Msg("generator returned malformed questions")
		return nil, err
	}
	return questions, nil
}

// Judge asks the grading model whether a short answer is correct.
func (c *AnthropicClient) Judge(ctx context.Context, input JudgeInput) (Judgment, error) {
	content, err := c.complete(ctx, operationJudge, c.cfg.GradingModel, 256, judgeSystemPrompt(), buildJudgePrompt(input))
	if err != nil {
		return Judgment{}, err
	}

	judgment, err := ParseJudgment(content)
	if err != nil {
		aiFailures.WithLabelValues("anthropic", operationJudge).Inc()
		return Judgment{}, err
	}
	return judgment, nil
}

func (c *AnthropicClient) complete(parent context.Context, operation, model string, maxTokens int, system, user string) (string, error) {
	ctx, span := c.tracer.Start(parent, "anthropic."+operation, trace.WithAttributes(
		attribute.String("model", model),
	))
	defer span.End()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, params)
	aiDuration.WithLabelValues("anthropic", operation).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues("anthropic", operation).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("anthropic %s: %w", operation, err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			span.SetAttributes(attribute.Int64("usage.output_tokens", msg.Usage.OutputTokens))
			return strings.TrimSpace(block.Text), nil
		}
	}

	err = fmt.Errorf("%w: no text content in anthropic response", ErrMalformedContent)
	aiFailures.WithLabelValues("anthropic", operation).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return "", err
}

func resolveModel(name string) string {
	if id, ok := anthropicModels[name]; ok {
		return id
	}
	return name
}
