package grading

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/gema-mastery-api/internal/models"
	"github.com/noah-isme/gema-mastery-api/pkg/mathexpr"
)

var (
	// ErrUnknownQuestionType indicates a persisted question carries a type tag outside the known set.
	ErrUnknownQuestionType = errors.New("unknown question type")
	// ErrInvalidCanonicalAnswer indicates a canonical answer its own kind could never match.
	ErrInvalidCanonicalAnswer = errors.New("invalid canonical answer")
)

const (
	feedbackInvalidNumber     = "Please enter a valid number"
	feedbackInvalidExpression = "Please enter a valid mathematical expression"
	feedbackUnsupported       = "Please enter an expression using only numbers, variables, + - * / ^ and parentheses"

	numericRelativeTolerance = 0.01
	numericAbsoluteFloor     = 0.01
	// Absorbs float rounding in the tolerance product without widening the band.
	numericRelativeEpsilon = 1e-12
)

// Kind is the closed set of question kinds. Only this package can add members.
type Kind interface {
	Type() models.QuestionType
	grade(ctx context.Context, g *Grader, question models.Question, answer string) Verdict
	checkCanonical(answer string) error
}

// MultipleChoice compares the submitted option token case-insensitively.
type MultipleChoice struct{}

// ShortAnswer defers to the judgment collaborator with a substring fallback.
type ShortAnswer struct{}

// Numeric compares floating point values within a relative tolerance.
type Numeric struct{}

// Equation checks symbolic equivalence of algebraic expressions or equations.
type Equation struct{}

// KindOf resolves a persisted question type to its kind.
func KindOf(questionType models.QuestionType) (Kind, error) {
	switch questionType {
	case models.QuestionTypeMultipleChoice:
		return MultipleChoice{}, nil
	case models.QuestionTypeShortAnswer:
		return ShortAnswer{}, nil
	case models.QuestionTypeNumeric:
		return Numeric{}, nil
	case models.QuestionTypeEquation:
		return Equation{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuestionType, questionType)
	}
}

func (MultipleChoice) Type() models.QuestionType { return models.QuestionTypeMultipleChoice }

func (MultipleChoice) grade(_ context.Context, _ *Grader, question models.Question, answer string) Verdict {
	submitted := strings.TrimSpace(answer)
	if submitted == "" {
		return Verdict{}
	}
	return Verdict{Correct: strings.EqualFold(submitted, strings.TrimSpace(question.CorrectAnswer))}
}

func (ShortAnswer) Type() models.QuestionType { return models.QuestionTypeShortAnswer }

func (ShortAnswer) grade(ctx context.Context, g *Grader, question models.Question, answer string) Verdict {
	return g.judgeShortAnswer(ctx, question, answer)
}

func (Numeric) Type() models.QuestionType { return models.QuestionTypeNumeric }

func (Numeric) grade(_ context.Context, g *Grader, question models.Question, answer string) Verdict {
	submitted, ok := parseNumber(answer)
	if !ok {
		return Verdict{Feedback: feedbackInvalidNumber}
	}
	canonical, ok := parseNumber(question.CorrectAnswer)
	if !ok {
		g.logger.Warn().Uint("question_id", question.ID).Str("canonical", question.CorrectAnswer).Msg("canonical numeric answer does not parse")
		return Verdict{}
	}
	return Verdict{Correct: WithinTolerance(submitted, canonical)}
}

func (Equation) Type() models.QuestionType { return models.QuestionTypeEquation }

func (Equation) grade(_ context.Context, g *Grader, question models.Question, answer string) Verdict {
	submitted, err := mathexpr.Parse(answer)
	if err != nil {
		if errors.Is(err, mathexpr.ErrUnsupported) {
			return Verdict{Feedback: feedbackUnsupported}
		}
		return Verdict{Feedback: feedbackInvalidExpression}
	}

	canonical, err := mathexpr.Parse(question.CorrectAnswer)
	if err != nil {
		g.logger.Warn().Err(err).Uint("question_id", question.ID).Msg("canonical equation answer does not parse")
		return Verdict{}
	}

	equivalent, err := mathexpr.Equivalent(canonical, submitted)
	if err != nil {
		return Verdict{Feedback: feedbackInvalidExpression}
	}
	return Verdict{Correct: equivalent}
}

// ValidateCanonicalAnswer checks that a canonical answer is gradable by its question kind.
func ValidateCanonicalAnswer(questionType models.QuestionType, answer string) error {
	kind, err := KindOf(questionType)
	if err != nil {
		return err
	}
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("%w: empty %s answer", ErrInvalidCanonicalAnswer, questionType)
	}
	return kind.checkCanonical(answer)
}

func (MultipleChoice) checkCanonical(string) error { return nil }

func (ShortAnswer) checkCanonical(string) error { return nil }

func (Numeric) checkCanonical(answer string) error {
	if _, ok := parseNumber(answer); !ok {
		return fmt.Errorf("%w: %q is not a number", ErrInvalidCanonicalAnswer, answer)
	}
	return nil
}

func (Equation) checkCanonical(answer string) error {
	if _, err := mathexpr.Parse(answer); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCanonicalAnswer, err)
	}
	return nil
}

// WithinTolerance reports whether submitted is within max(|canonical|*1%, 0.01) of canonical.
func WithinTolerance(submitted, canonical float64) bool {
	tolerance := math.Max(math.Abs(canonical)*numericRelativeTolerance, numericAbsoluteFloor)
	return math.Abs(submitted-canonical) <= tolerance*(1+numericRelativeEpsilon)
}

func parseNumber(value string) (float64, bool) {
	number, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, false
	}
	return number, true
}
