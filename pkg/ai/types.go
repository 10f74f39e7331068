package ai

import (
	"context"
	"errors"
)

// ErrMalformedContent indicates a collaborator returned output that does not match the expected
// structure.
var ErrMalformedContent = errors.New("malformed ai content")

// ErrUnavailable indicates no collaborator is configured for the requested operation.
var ErrUnavailable = errors.New("ai collaborator unavailable")

// QuestionMix describes how many questions of one type to request.
type QuestionMix struct {
	Type  string
	Count int
}

// QuestionRequest carries the curricular context used to generate assessment questions.
type QuestionRequest struct {
	ObjectiveTitle       string
	ObjectiveDescription string
	Subject              string
	GradeLevel           int
	StandardCodes        []string
	Mix                  []QuestionMix
	Count                int
}

// GeneratedQuestion is one question as returned by the content generator.
type GeneratedQuestion struct {
	Type          string   `json:"question_type" validate:"required,oneof=multiple_choice short_answer numeric equation"`
	Text          string   `json:"question_text" validate:"required"`
	Options       []string `json:"options,omitempty" validate:"omitempty,min=2,dive,required"`
	CorrectAnswer string   `json:"correct_answer" validate:"required"`
	Hint1         string   `json:"hint_1,omitempty"`
	Hint2         string   `json:"hint_2,omitempty"`
}

// ContentGenerator produces assessment questions for an objective.
type ContentGenerator interface {
	GenerateQuestions(ctx context.Context, req QuestionRequest) ([]GeneratedQuestion, error)
}

// JudgeInput contains the material needed to judge a short answer.
type JudgeInput struct {
	Question       string
	ExpectedAnswer string
	StudentAnswer  string
}

// Judgment is the structured verdict of the judgment collaborator.
type Judgment struct {
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback"`
}

// Judge grades free-text answers.
type Judge interface {
	Judge(ctx context.Context, input JudgeInput) (Judgment, error)
}
