package grading

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-mastery-api/internal/models"
	"github.com/noah-isme/gema-mastery-api/internal/observability"
	"github.com/noah-isme/gema-mastery-api/pkg/ai"
)

// Verdict is the outcome of grading a single answer.
type Verdict struct {
	Correct  bool
	Feedback string
}

// Grader evaluates submitted answers. It never persists anything.
type Grader struct {
	judge  ai.Judge
	logger zerolog.Logger
}

// NewGrader constructs a Grader. A nil judge grades short answers by substring containment.
func NewGrader(judge ai.Judge, logger zerolog.Logger) *Grader {
	return &Grader{
		judge:  judge,
		logger: logger.With().Str("component", "answer_grader").Logger(),
	}
}

// Grade dispatches on the question kind. Malformed input is reported through the verdict
// feedback, so the only error is an unknown question type.
func (g *Grader) Grade(ctx context.Context, question models.Question, answer string) (Verdict, error) {
	kind, err := KindOf(question.Type)
	if err != nil {
		return Verdict{}, err
	}

	verdict := kind.grade(ctx, g, question, answer)
	observability.AnswersGraded().WithLabelValues(string(kind.Type()), strconv.FormatBool(verdict.Correct)).Inc()
	return verdict, nil
}

func (g *Grader) judgeShortAnswer(ctx context.Context, question models.Question, answer string) Verdict {
	if g.judge != nil {
		judgment, err := g.judge.Judge(ctx, ai.JudgeInput{
			Question:       question.Text,
			ExpectedAnswer: question.CorrectAnswer,
			StudentAnswer:  answer,
		})
		if err == nil {
			return Verdict{
				Correct:  judgment.Correct,
				Feedback: PlainText(judgment.Feedback),
			}
		}
		g.logger.Warn().Err(err).Uint("question_id", question.ID).Msg("short answer judge unavailable, using substring fallback")
	}

	observability.JudgeFallbacks().Inc()
	return Verdict{Correct: containsFold(answer, question.CorrectAnswer)}
}

func containsFold(haystack, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), needle)
}
