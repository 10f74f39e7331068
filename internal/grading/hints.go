package grading

import (
	"strings"

	"github.com/noah-isme/gema-mastery-api/internal/models"
)

// Disclosure is what a learner is shown after a submission.
type Disclosure struct {
	Hint         string
	RevealAnswer bool
}

// NextDisclosure decides the next disclosure from the number of prior responses to the question.
// Correct answers disclose nothing; wrong answers escalate hint 1, hint 2, then the answer.
func NextDisclosure(question models.Question, priorAttempts int, correct bool) Disclosure {
	if correct {
		return Disclosure{}
	}

	switch {
	case priorAttempts == 0 && strings.TrimSpace(question.Hint1) != "":
		return Disclosure{Hint: question.Hint1}
	case priorAttempts == 1 && strings.TrimSpace(question.Hint2) != "":
		return Disclosure{Hint: question.Hint2}
	default:
		return Disclosure{RevealAnswer: true}
	}
}
