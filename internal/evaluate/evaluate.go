package evaluate

import (
	"context"
	"strings"

	"github.com/victornm/quickcraft/internal/domain"
	"github.com/victornm/quickcraft/internal/errors"
)

// Judge renders a free-text correctness verdict for a theory answer.
// Implementations are treated as unreliable: slow, malformed, or failing.
type Judge interface {
	Evaluate(ctx context.Context, questionText, expectedAnswer, submittedText string) (string, error)
}

// Objective grades a multiple-choice selection. Pure, always succeeds.
func Objective(q domain.Question, selected int) bool {
	return selected == q.CorrectIndex
}

// TheoryResult carries the classified verdict of one theory evaluation.
type TheoryResult struct {
	IsCorrect bool
	Verdict   string
}

// Theory delegates a theory answer to the judge and classifies the raw
// verdict text: it counts as correct iff the text contains "true",
// case-insensitive. Anything else, including text naming neither "true"
// nor "false", is incorrect. Judge failures are wrapped and never retried
// here; the caller decides whether to resubmit.
func Theory(ctx context.Context, j Judge, q domain.Question, submitted string) (TheoryResult, error) {
	verdict, err := j.Evaluate(ctx, q.Text, q.ExpectedAnswer, submitted)
	if err != nil {
		return TheoryResult{}, errors.New(errors.CodeUnavailable,
			errors.WithMessagef("evaluate theory answer"),
			errors.WithCause(err),
		)
	}

	return TheoryResult{
		IsCorrect: Classify(verdict),
		Verdict:   verdict,
	}, nil
}

// Classify applies the verdict rule to raw judge output.
func Classify(verdict string) bool {
	return strings.Contains(strings.ToLower(verdict), "true")
}
