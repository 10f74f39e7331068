package ai

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/rs/zerolog"
)

// ResilientConfig tunes the protection placed around the AI collaborators.
type ResilientConfig struct {
	Provider      string
	FailureStreak uint32
	OpenTimeout   time.Duration
	RetryAttempts int
	Logger        zerolog.Logger
}

// Resilient wraps a generator and a judge with circuit breakers and retries.
// When a breaker is open calls fail fast, which lets graders fall back immediately.
type Resilient struct {
	generator ContentGenerator
	judge     Judge

	generateBreaker circuitbreaker.CircuitBreaker[[]GeneratedQuestion]
	judgeBreaker    circuitbreaker.CircuitBreaker[Judgment]
	generateRetry   retry.Retry[[]GeneratedQuestion]
	logger          zerolog.Logger
}

// NewResilient returns a Resilient wrapper. Either collaborator may be nil.
func NewResilient(generator ContentGenerator, judge Judge, cfg ResilientConfig) *Resilient {
	if cfg.FailureStreak == 0 {
		cfg.FailureStreak = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 60 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 2
	}

	r := &Resilient{
		generator: generator,
		judge:     judge,
		logger:    cfg.Logger.With().Str("component", "ai_resilience").Str("provider", cfg.Provider).Logger(),
	}

	tripAfter := cfg.FailureStreak
	onStateChange := func(name string) func(from, to circuitbreaker.State) {
		return func(from, to circuitbreaker.State) {
			r.logger.Warn().
				Str("operation", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		}
	}

	// Malformed output and caller cancellation say nothing about provider health.
	healthy := func(err error) bool {
		return err == nil || errors.Is(err, ErrMalformedContent) || errors.Is(err, context.Canceled)
	}

	r.generateBreaker = circuitbreaker.New[[]GeneratedQuestion](circuitbreaker.Config{
		MaxRequests: 2,
		Interval:    10 * time.Second,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: onStateChange(operationGenerate),
		IsSuccessful:  healthy,
	})
	r.judgeBreaker = circuitbreaker.New[Judgment](circuitbreaker.Config{
		MaxRequests: 2,
		Interval:    10 * time.Second,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: onStateChange(operationJudge),
		IsSuccessful:  healthy,
	})
	r.generateRetry = retry.New[[]GeneratedQuestion](retry.Config{
		MaxAttempts:   cfg.RetryAttempts,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable: func(err error) bool {
			return err != nil && !errors.Is(err, ErrMalformedContent) && !errors.Is(err, context.Canceled)
		},
	})

	return r
}

// GenerateQuestions retries transient failures and never retries malformed content.
func (r *Resilient) GenerateQuestions(ctx context.Context, req QuestionRequest) ([]GeneratedQuestion, error) {
	if r.generator == nil {
		return nil, ErrUnavailable
	}
	return r.generateBreaker.Execute(ctx, func(ctx context.Context) ([]GeneratedQuestion, error) {
		return r.generateRetry.Do(ctx, func(ctx context.Context) ([]GeneratedQuestion, error) {
			return r.generator.GenerateQuestions(ctx, req)
		})
	})
}

// Judge makes a single attempt so the grading path stays fast.
func (r *Resilient) Judge(ctx context.Context, input JudgeInput) (Judgment, error) {
	if r.judge == nil {
		return Judgment{}, ErrUnavailable
	}
	return r.judgeBreaker.Execute(ctx, func(ctx context.Context) (Judgment, error) {
		return r.judge.Judge(ctx, input)
	})
}
