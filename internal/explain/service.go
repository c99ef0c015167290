package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/victornm/quickcraft/internal/errors"
)

// Service produces post-hoc commentary for an already graded question.
// It is display-only: it is never consulted for grading and its failure
// has no effect on a session.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

type ExplainRequest struct {
	Question       string
	Options        []string
	CorrectAnswer  string
	SelectedAnswer string
}

type ExplainResponse struct {
	Explanation string
	IsCorrect   bool
}

// Explain returns canned educational commentary keyed off the question
// text, with feedback on the taker's choice appended.
func (s *Service) Explain(_ context.Context, req ExplainRequest) (*ExplainResponse, error) {
	if req.Question == "" || len(req.Options) == 0 || req.CorrectAnswer == "" {
		return nil, errors.InvalidArgumentf("question details are required")
	}

	correct := req.CorrectAnswer == req.SelectedAnswer

	var b strings.Builder
	switch {
	case strings.Contains(strings.ToLower(req.Question), "capital"):
		fmt.Fprintf(&b, "The capital city serves as the political center of a country. %s is the correct answer because it is the official seat of government. Capital cities often host important government buildings, embassies, and cultural institutions.", req.CorrectAnswer)
	case strings.Contains(req.Question, "2 + 2"):
		b.WriteString("In mathematics, 2 + 2 equals 4. This is a fundamental arithmetic operation where we add two units to another two units, resulting in four units total. This is part of the base-10 number system we use everyday.")
	default:
		fmt.Fprintf(&b, "The correct answer is %s. When answering multiple-choice questions, it's important to carefully analyze each option. %s is correct because it aligns with the factual information related to the question. Understanding the core concepts behind this question will help you remember the answer in the future.", req.CorrectAnswer, req.CorrectAnswer)
	}

	if correct {
		fmt.Fprintf(&b, " You correctly selected %s, which demonstrates your understanding of this topic.", req.SelectedAnswer)
	} else {
		fmt.Fprintf(&b, " You selected %s, which is incorrect. Remember to review this topic to strengthen your understanding.", req.SelectedAnswer)
	}

	return &ExplainResponse{
		Explanation: b.String(),
		IsCorrect:   correct,
	}, nil
}
