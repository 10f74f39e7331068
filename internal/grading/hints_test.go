package grading

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-mastery-api/internal/models"
)

func TestNextDisclosureEscalates(t *testing.T) {
	q := models.Question{Hint1: "gentle", Hint2: "strong", CorrectAnswer: "45"}

	require.Equal(t, Disclosure{Hint: "gentle"}, NextDisclosure(q, 0, false))
	require.Equal(t, Disclosure{Hint: "strong"}, NextDisclosure(q, 1, false))
	for prior := 2; prior < 6; prior++ {
		require.Equal(t, Disclosure{RevealAnswer: true}, NextDisclosure(q, prior, false))
	}
}

func TestNextDisclosureCorrectDisclosesNothing(t *testing.T) {
	q := models.Question{Hint1: "gentle", Hint2: "strong"}

	for prior := 0; prior < 4; prior++ {
		require.Equal(t, Disclosure{}, NextDisclosure(q, prior, true))
	}
}

func TestNextDisclosureMissingHintsReveal(t *testing.T) {
	require.Equal(t, Disclosure{RevealAnswer: true}, NextDisclosure(models.Question{}, 0, false))
	require.Equal(t, Disclosure{RevealAnswer: true}, NextDisclosure(models.Question{Hint1: "only"}, 1, false))
	require.Equal(t, Disclosure{Hint: "only"}, NextDisclosure(models.Question{Hint1: "only"}, 0, false))
}

func TestNextDisclosureNeverGoesBackwards(t *testing.T) {
	q := models.Question{Hint1: "gentle", Hint2: "strong"}
	stage := func(d Disclosure) int {
		switch {
		case d.RevealAnswer:
			return 3
		case d.Hint == "strong":
			return 2
		case d.Hint == "gentle":
			return 1
		default:
			return 0
		}
	}

	last := 0
	for prior := 0; prior < 5; prior++ {
		current := stage(NextDisclosure(q, prior, false))
		require.GreaterOrEqual(t, current, last)
		last = current
	}
}
