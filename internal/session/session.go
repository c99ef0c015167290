package session

import (
	"math"
	"time"

	"github.com/victornm/quickcraft/internal/domain"
	"github.com/victornm/quickcraft/internal/errors"
)

const (
	minTimerMinutes = 1
	maxTimerMinutes = 180
)

// Session is the state machine for one user's sitting through one quiz.
// All methods are pure transitions: they mutate in-memory state and never
// perform I/O. The service layer serializes calls and runs the side
// effects (judge call, persistence, events) around them.
//
// Status only advances forward:
//
//	Setup -> Active <-> AwaitingEvaluation -> Expired -> Completed
//	                 \__________________________________/
type Session struct {
	SessionID string
	UserID    string

	Status         domain.SessionStatus
	CurrentIndex   int
	Deadline       time.Time
	Attempts       []domain.AttemptResult
	CorrectCount   int
	FinalScore     int
	ReadyToAdvance bool

	quiz *domain.Quiz
}

func newSession(id, userID string, quiz *domain.Quiz) *Session {
	return &Session{
		SessionID: id,
		UserID:    userID,
		Status:    domain.SessionStatusSetup,
		quiz:      quiz,
	}
}

func (s *Session) Quiz() *domain.Quiz { return s.quiz }

// Current returns the question at the cursor.
func (s *Session) Current() domain.Question {
	return s.quiz.Questions[s.CurrentIndex]
}

func (s *Session) total() int { return len(s.quiz.Questions) }

// Answered reports whether the question at index already has a result.
func (s *Session) Answered(index int) bool {
	for _, a := range s.Attempts {
		if a.QuestionIndex == index {
			return true
		}
	}
	return false
}

// Start leaves Setup. timerMinutes nil means no deadline; otherwise it
// must be within 1..180 and the returned duration is the countdown to arm.
func (s *Session) Start(timerMinutes *int, now time.Time) (time.Duration, error) {
	if s.Status != domain.SessionStatusSetup {
		return 0, errors.FailedPreconditionf("session %s already started", s.SessionID)
	}

	if timerMinutes == nil {
		s.Status = domain.SessionStatusActive
		return 0, nil
	}

	m := *timerMinutes
	if m < minTimerMinutes || m > maxTimerMinutes {
		return 0, errors.InvalidArgumentf("timer must be between %d and %d minutes, got %d", minTimerMinutes, maxTimerMinutes, m)
	}

	d := time.Duration(m) * time.Minute
	s.Deadline = now.Add(d)
	s.Status = domain.SessionStatusActive
	return d, nil
}

// SubmitObjective grades a multiple-choice selection in place. One result
// per index: a re-submission of an answered question is rejected with no
// state change.
func (s *Session) SubmitObjective(selected int, isCorrect bool, now time.Time) error {
	if err := s.checkSubmittable(); err != nil {
		return err
	}
	if selected < 0 || selected >= domain.OptionCount {
		return errors.InvalidArgumentf("selected option %d out of range", selected)
	}

	s.append(domain.AttemptResult{
		QuestionIndex: s.CurrentIndex,
		IsCorrect:     isCorrect,
		AwardedScore:  boolToScore(isCorrect, 1),
		Timestamp:     now,
	})
	s.ReadyToAdvance = true
	return nil
}

// BeginTheory suspends the machine on the external judge. While awaiting,
// further submissions for the question are rejected (single-flight).
func (s *Session) BeginTheory(text string) error {
	if err := s.checkSubmittable(); err != nil {
		return err
	}
	if text == "" {
		return errors.InvalidArgumentf("answer text is required")
	}

	s.Status = domain.SessionStatusAwaitingEvaluation
	return nil
}

// CompleteTheory lands a judged verdict. The awarded score is the
// question's full mark when correct, zero otherwise; either way the
// question contributes exactly one unit to the final percentage.
func (s *Session) CompleteTheory(isCorrect bool, feedback string, now time.Time) error {
	if s.Status != domain.SessionStatusAwaitingEvaluation {
		return errors.FailedPreconditionf("session %s is not awaiting evaluation", s.SessionID)
	}

	s.append(domain.AttemptResult{
		QuestionIndex: s.CurrentIndex,
		IsCorrect:     isCorrect,
		AwardedScore:  boolToScore(isCorrect, s.Current().Mark),
		Feedback:      feedback,
		Timestamp:     now,
	})
	s.Status = domain.SessionStatusActive
	s.ReadyToAdvance = true
	return nil
}

// FailTheory returns to Active after a judge failure. Nothing is
// recorded; the question stays unanswered and may be resubmitted.
func (s *Session) FailTheory() {
	if s.Status == domain.SessionStatusAwaitingEvaluation {
		s.Status = domain.SessionStatusActive
	}
}

// Advance moves the cursor, or reports that the last question is done and
// the session must finalize.
func (s *Session) Advance() (finished bool, err error) {
	if s.Status != domain.SessionStatusActive || !s.ReadyToAdvance {
		return false, errors.FailedPreconditionf("session %s has no graded answer to advance from", s.SessionID)
	}

	if s.CurrentIndex >= s.total()-1 {
		return true, nil
	}

	s.CurrentIndex++
	s.ReadyToAdvance = false
	return false, nil
}

// Expire forces the deadline transition. It reports false when the
// session already left the running states, making repeat timeouts no-ops.
func (s *Session) Expire() bool {
	if s.Status != domain.SessionStatusActive && s.Status != domain.SessionStatusAwaitingEvaluation {
		return false
	}

	s.Status = domain.SessionStatusExpired
	return true
}

// Complete is the terminal transition. Idempotent: a completed session
// stays completed and reports false.
func (s *Session) Complete(score int) bool {
	if s.Status == domain.SessionStatusCompleted {
		return false
	}

	s.FinalScore = score
	s.Status = domain.SessionStatusCompleted
	s.ReadyToAdvance = false
	return true
}

// Score folds recorded attempts into the final percentage. The
// denominator is always the full question count: questions left
// unanswered at a timeout count as incorrect.
func (s *Session) Score() int {
	return int(math.Round(float64(s.CorrectCount) * 100 / float64(s.total())))
}

func (s *Session) checkSubmittable() error {
	if s.Status != domain.SessionStatusActive {
		return errors.FailedPreconditionf("session %s is not active", s.SessionID)
	}
	if s.Answered(s.CurrentIndex) {
		return errors.FailedPreconditionf("question %d is already answered", s.CurrentIndex)
	}
	return nil
}

func (s *Session) append(a domain.AttemptResult) {
	s.Attempts = append(s.Attempts, a)
	if a.IsCorrect {
		s.CorrectCount++
	}
}

func boolToScore(correct bool, mark int) int {
	if correct {
		return mark
	}
	return 0
}
