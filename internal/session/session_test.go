package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quickcraft/internal/domain"
	"github.com/victornm/quickcraft/internal/errors"
)

func objective(correct int) domain.Question {
	return domain.Question{
		Kind:         domain.QuestionKindObjective,
		Text:         "pick one",
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: correct,
	}
}

func theory(mark int) domain.Question {
	return domain.Question{
		Kind:           domain.QuestionKindTheory,
		Text:           "explain",
		ExpectedAnswer: "because",
		Mark:           mark,
	}
}

func makeSession(questions ...domain.Question) *Session {
	return newSession("s1", "u1", &domain.Quiz{
		QuizID:    "q1",
		Title:     "quiz",
		Questions: questions,
	})
}

func TestSession_Start(t *testing.T) {
	now := time.Now()

	t.Run("without timer", func(t *testing.T) {
		s := makeSession(objective(0))

		d, err := s.Start(nil, now)
		require.NoError(t, err)
		assert.Zero(t, d)
		assert.Equal(t, domain.SessionStatusActive, s.Status)
		assert.True(t, s.Deadline.IsZero())
	})

	t.Run("with timer", func(t *testing.T) {
		s := makeSession(objective(0))

		m := 30
		d, err := s.Start(&m, now)
		require.NoError(t, err)
		assert.Equal(t, 30*time.Minute, d)
		assert.Equal(t, now.Add(30*time.Minute), s.Deadline)
	})

	t.Run("timer out of range", func(t *testing.T) {
		for _, m := range []int{0, -1, 181} {
			s := makeSession(objective(0))

			m := m
			_, err := s.Start(&m, now)
			assert.True(t, errors.Is(err, errors.CodeInvalidArgument), "minutes=%d", m)
			assert.Equal(t, domain.SessionStatusSetup, s.Status)
		}
	})

	t.Run("already started", func(t *testing.T) {
		s := makeSession(objective(0))

		_, err := s.Start(nil, now)
		require.NoError(t, err)

		_, err = s.Start(nil, now)
		assert.True(t, errors.Is(err, errors.CodeFailedPrecondition))
	})
}

func TestSession_SubmitObjective(t *testing.T) {
	now := time.Now()

	t.Run("rejected before start", func(t *testing.T) {
		s := makeSession(objective(0))

		err := s.SubmitObjective(0, true, now)
		assert.True(t, errors.Is(err, errors.CodeFailedPrecondition))
		assert.Empty(t, s.Attempts)
	})

	t.Run("out of range selection leaves state untouched", func(t *testing.T) {
		s := makeSession(objective(0))
		_, _ = s.Start(nil, now)

		for _, sel := range []int{-1, 4, 10} {
			err := s.SubmitObjective(sel, false, now)
			assert.True(t, errors.Is(err, errors.CodeInvalidArgument), "selected=%d", sel)
		}
		assert.Empty(t, s.Attempts)
		assert.False(t, s.ReadyToAdvance)
	})

	t.Run("grades and flags ready to advance", func(t *testing.T) {
		s := makeSession(objective(2))
		_, _ = s.Start(nil, now)

		require.NoError(t, s.SubmitObjective(2, true, now))
		assert.Equal(t, domain.SessionStatusActive, s.Status)
		assert.True(t, s.ReadyToAdvance)
		assert.Equal(t, 1, s.CorrectCount)
		require.Len(t, s.Attempts, 1)
		assert.Equal(t, domain.AttemptResult{
			QuestionIndex: 0,
			IsCorrect:     true,
			AwardedScore:  1,
			Timestamp:     now,
		}, s.Attempts[0])
	})

	t.Run("already answered index is rejected", func(t *testing.T) {
		s := makeSession(objective(2))
		_, _ = s.Start(nil, now)

		require.NoError(t, s.SubmitObjective(1, false, now))

		err := s.SubmitObjective(2, true, now)
		assert.True(t, errors.Is(err, errors.CodeFailedPrecondition))
		assert.Len(t, s.Attempts, 1)
		assert.Equal(t, 0, s.CorrectCount)
	})
}

func TestSession_Theory(t *testing.T) {
	now := time.Now()

	t.Run("empty answer rejected without transition", func(t *testing.T) {
		s := makeSession(theory(5))
		_, _ = s.Start(nil, now)

		err := s.BeginTheory("")
		assert.True(t, errors.Is(err, errors.CodeInvalidArgument))
		assert.Equal(t, domain.SessionStatusActive, s.Status)
	})

	t.Run("single flight while awaiting evaluation", func(t *testing.T) {
		s := makeSession(theory(5))
		_, _ = s.Start(nil, now)

		require.NoError(t, s.BeginTheory("an answer"))
		assert.Equal(t, domain.SessionStatusAwaitingEvaluation, s.Status)

		err := s.BeginTheory("another answer")
		assert.True(t, errors.Is(err, errors.CodeFailedPrecondition))
	})

	t.Run("correct verdict awards the full mark", func(t *testing.T) {
		s := makeSession(theory(7))
		_, _ = s.Start(nil, now)

		require.NoError(t, s.BeginTheory("an answer"))
		require.NoError(t, s.CompleteTheory(true, "well done", now))

		assert.Equal(t, domain.SessionStatusActive, s.Status)
		assert.True(t, s.ReadyToAdvance)
		require.Len(t, s.Attempts, 1)
		assert.Equal(t, 7, s.Attempts[0].AwardedScore)
		assert.Equal(t, 1, s.CorrectCount)
	})

	t.Run("wrong verdict awards zero", func(t *testing.T) {
		s := makeSession(theory(7))
		_, _ = s.Start(nil, now)

		require.NoError(t, s.BeginTheory("an answer"))
		require.NoError(t, s.CompleteTheory(false, "not quite", now))

		require.Len(t, s.Attempts, 1)
		assert.Equal(t, 0, s.Attempts[0].AwardedScore)
		assert.Equal(t, 0, s.CorrectCount)
	})

	t.Run("judge failure leaves question unanswered", func(t *testing.T) {
		s := makeSession(theory(5))
		_, _ = s.Start(nil, now)

		require.NoError(t, s.BeginTheory("an answer"))
		s.FailTheory()

		assert.Equal(t, domain.SessionStatusActive, s.Status)
		assert.Empty(t, s.Attempts)
		assert.False(t, s.ReadyToAdvance)

		// The retry goes through.
		require.NoError(t, s.BeginTheory("an answer"))
		require.NoError(t, s.CompleteTheory(true, "ok", now))
		assert.Len(t, s.Attempts, 1)
	})
}

func TestSession_Advance(t *testing.T) {
	now := time.Now()

	t.Run("rejected without a graded answer", func(t *testing.T) {
		s := makeSession(objective(0), objective(1))
		_, _ = s.Start(nil, now)

		_, err := s.Advance()
		assert.True(t, errors.Is(err, errors.CodeFailedPrecondition))
	})

	t.Run("moves the cursor and clears per-question state", func(t *testing.T) {
		s := makeSession(objective(0), objective(1))
		_, _ = s.Start(nil, now)
		require.NoError(t, s.SubmitObjective(0, true, now))

		finished, err := s.Advance()
		require.NoError(t, err)
		assert.False(t, finished)
		assert.Equal(t, 1, s.CurrentIndex)
		assert.False(t, s.ReadyToAdvance)
	})

	t.Run("reports finished on the last question", func(t *testing.T) {
		s := makeSession(objective(0))
		_, _ = s.Start(nil, now)
		require.NoError(t, s.SubmitObjective(0, true, now))

		finished, err := s.Advance()
		require.NoError(t, err)
		assert.True(t, finished)
	})
}

func TestSession_Score(t *testing.T) {
	tests := map[string]struct {
		total   int
		correct int
		want    int
	}{
		"3 of 4":             {total: 4, correct: 3, want: 75},
		"1 of 3":             {total: 3, correct: 1, want: 33},
		"2 of 5 at timeout":  {total: 5, correct: 2, want: 40},
		"all correct":        {total: 3, correct: 3, want: 100},
		"none correct":       {total: 3, correct: 0, want: 0},
		"half rounds up 1/2": {total: 2, correct: 1, want: 50},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			questions := make([]domain.Question, tt.total)
			for i := range questions {
				questions[i] = objective(0)
			}

			s := makeSession(questions...)
			s.CorrectCount = tt.correct

			assert.Equal(t, tt.want, s.Score())
		})
	}
}

func TestSession_ExpireAndComplete(t *testing.T) {
	now := time.Now()

	t.Run("expire wins only from running states", func(t *testing.T) {
		s := makeSession(objective(0))
		assert.False(t, s.Expire(), "setup session should not expire")

		_, _ = s.Start(nil, now)
		assert.True(t, s.Expire())
		assert.Equal(t, domain.SessionStatusExpired, s.Status)

		assert.False(t, s.Expire(), "second expire is a no-op")
	})

	t.Run("expire while awaiting evaluation", func(t *testing.T) {
		s := makeSession(theory(5))
		_, _ = s.Start(nil, now)
		require.NoError(t, s.BeginTheory("an answer"))

		assert.True(t, s.Expire())
	})

	t.Run("complete is terminal and idempotent", func(t *testing.T) {
		s := makeSession(objective(0))
		_, _ = s.Start(nil, now)

		assert.True(t, s.Complete(40))
		assert.Equal(t, domain.SessionStatusCompleted, s.Status)
		assert.Equal(t, 40, s.FinalScore)

		assert.False(t, s.Complete(100))
		assert.Equal(t, 40, s.FinalScore, "score must not change after completion")
		assert.False(t, s.Expire())
	})
}

func TestCountdown(t *testing.T) {
	t.Run("fires exactly once after the full duration", func(t *testing.T) {
		c := newCountdown(time.Minute)

		fired := 0
		for i := 0; i < 60; i++ {
			if c.tick() {
				fired++
			}
		}
		require.Equal(t, 1, fired, "should fire on the 60th tick")

		// Extra ticks from scheduling jitter must not re-fire.
		for i := 0; i < 10; i++ {
			assert.False(t, c.tick())
		}
	})

	t.Run("does not fire early", func(t *testing.T) {
		c := newCountdown(time.Minute)

		for i := 0; i < 59; i++ {
			assert.False(t, c.tick(), "tick %d", i)
		}
		assert.Equal(t, 1, c.left())
	})
}
