package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const questionsSchema = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["question_type", "question_text", "correct_answer"],
        "properties": {
          "question_type": {"enum": ["multiple_choice", "short_answer", "numeric", "equation"]},
          "question_text": {"type": "string", "minLength": 1},
          "options": {"type": ["array", "null"], "items": {"type": "string"}},
          "correct_answer": {"type": ["string", "number"]},
          "hint_1": {"type": ["string", "null"]},
          "hint_2": {"type": ["string", "null"]}
        }
      }
    }
  }
}`

const judgmentSchema = `{
  "type": "object",
  "required": ["correct"],
  "properties": {
    "correct": {"type": "boolean"},
    "feedback": {"type": ["string", "null"]}
  }
}`

var (
	compiledQuestions = jsonschema.MustCompileString("schema://questions.json", questionsSchema)
	compiledJudgment  = jsonschema.MustCompileString("schema://judgment.json", judgmentSchema)
	questionValidator = validator.New(validator.WithRequiredStructEnabled())
)

// extractJSON strips markdown code fences that models like to wrap JSON in.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if idx := strings.Index(content, "```json"); idx >= 0 {
		rest := content[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(content, "```"); idx >= 0 {
		rest := content[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	return content
}

func decodeAgainst(schema *jsonschema.Schema, content string) error {
	var doc interface{}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return fmt.Errorf("%w: invalid json: %v", ErrMalformedContent, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	return nil
}

// ParseQuestions converts raw generator output into validated questions.
func ParseQuestions(content string) ([]GeneratedQuestion, error) {
	content = extractJSON(content)
	if err := decodeAgainst(compiledQuestions, content); err != nil {
		return nil, err
	}

	var payload struct {
		Questions []struct {
			Type          string          `json:"question_type"`
			Text          string          `json:"question_text"`
			Options       []string        `json:"options"`
			CorrectAnswer json.RawMessage `json:"correct_answer"`
			Hint1         *string         `json:"hint_1"`
			Hint2         *string         `json:"hint_2"`
		} `json:"questions"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}

	questions := make([]GeneratedQuestion, 0, len(payload.Questions))
	for i, item := range payload.Questions {
		question := GeneratedQuestion{
			Type:          item.Type,
			Text:          strings.TrimSpace(item.Text),
			Options:       item.Options,
			CorrectAnswer: answerText(item.CorrectAnswer),
		}
		if item.Hint1 != nil {
			question.Hint1 = strings.TrimSpace(*item.Hint1)
		}
		if item.Hint2 != nil {
			question.Hint2 = strings.TrimSpace(*item.Hint2)
		}
		if err := ValidateQuestion(question); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, question)
	}

	return questions, nil
}

// ValidateQuestion checks a generated question against the structural rules for its type.
func ValidateQuestion(question GeneratedQuestion) error {
	if err := questionValidator.Struct(question); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	if question.Type == "multiple_choice" && len(question.Options) < 2 {
		return fmt.Errorf("%w: multiple choice question needs options", ErrMalformedContent)
	}
	return nil
}

// answerText accepts both "45" and 45 for the canonical answer.
func answerText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(string(raw))
}

// ParseJudgment converts raw judge output into a Judgment.
func ParseJudgment(content string) (Judgment, error) {
	content = extractJSON(content)
	if err := decodeAgainst(compiledJudgment, content); err != nil {
		return Judgment{}, err
	}

	var payload struct {
		Correct  bool    `json:"correct"`
		Feedback *string `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return Judgment{}, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}

	judgment := Judgment{Correct: payload.Correct}
	if payload.Feedback != nil {
		judgment.Feedback = strings.TrimSpace(*payload.Feedback)
	}
	return judgment, nil
}
