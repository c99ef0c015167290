package catalog

import (
	"github.com/victornm/quickcraft/internal/domain"
	"github.com/victornm/quickcraft/internal/errors"
)

const (
	minTimeLimitMinutes = 1
	maxTimeLimitMinutes = 180

	minMark = 1
	maxMark = 10
)

// Validate checks a quiz's structure. It runs on create, update and
// fetch: a malformed stored quiz must never reach a session.
func Validate(q *domain.Quiz) error {
	if q.Title == "" {
		return errors.InvalidArgumentf("quiz title is required")
	}
	if q.Description == "" {
		return errors.InvalidArgumentf("quiz description is required")
	}
	if len(q.Questions) == 0 {
		return errors.InvalidArgumentf("quiz must have at least one question")
	}
	if q.TimerMode && (q.TimeLimitMinutes < minTimeLimitMinutes || q.TimeLimitMinutes > maxTimeLimitMinutes) {
		return errors.InvalidArgumentf("time limit must be between %d and %d minutes, got %d", minTimeLimitMinutes, maxTimeLimitMinutes, q.TimeLimitMinutes)
	}

	for i, qq := range q.Questions {
		if err := validateQuestion(i, qq); err != nil {
			return err
		}
	}

	return nil
}

func validateQuestion(i int, q domain.Question) error {
	if q.Text == "" {
		return errors.InvalidArgumentf("question %d: text is required", i)
	}

	switch q.Kind {
	case domain.QuestionKindObjective:
		if len(q.Options) != domain.OptionCount {
			return errors.InvalidArgumentf("question %d: objective question must have exactly %d options, got %d", i, domain.OptionCount, len(q.Options))
		}
		for j, opt := range q.Options {
			if opt == "" {
				return errors.InvalidArgumentf("question %d: option %d is empty", i, j)
			}
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= domain.OptionCount {
			return errors.InvalidArgumentf("question %d: correct index %d out of range", i, q.CorrectIndex)
		}

	case domain.QuestionKindTheory:
		if q.ExpectedAnswer == "" {
			return errors.InvalidArgumentf("question %d: theory question requires an expected answer", i)
		}
		if q.Mark < minMark || q.Mark > maxMark {
			return errors.InvalidArgumentf("question %d: mark must be between %d and %d, got %d", i, minMark, maxMark, q.Mark)
		}

	default:
		return errors.InvalidArgumentf("question %d: unknown kind %q", i, q.Kind)
	}

	return nil
}
