package session

import (
	"time"

	"github.com/victornm/quickcraft/internal/domain"
)

// View is a point-in-time copy of a session, safe to hand to the
// presentation layer. The current question omits the grading key.
type View struct {
	SessionID string
	QuizID    string
	QuizTitle string
	UserID    string

	Status         domain.SessionStatus
	CurrentIndex   int
	TotalQuestions int
	ReadyToAdvance bool
	CorrectCount   int
	FinalScore     int
	Deadline       time.Time
	SecondsLeft    int
	Attempts       []domain.AttemptResult

	Question *QuestionView
}

// QuestionView exposes what a taker may see before answering.
type QuestionView struct {
	Index   int
	Kind    domain.QuestionKind
	Text    string
	Options []string
	Mark    int
}

// snapshot copies the session state. Caller holds st.mu.
func snapshot(st *state) *View {
	sess := st.sess
	v := &View{
		SessionID:      sess.SessionID,
		QuizID:         sess.quiz.QuizID,
		QuizTitle:      sess.quiz.Title,
		UserID:         sess.UserID,
		Status:         sess.Status,
		CurrentIndex:   sess.CurrentIndex,
		TotalQuestions: sess.total(),
		ReadyToAdvance: sess.ReadyToAdvance,
		CorrectCount:   sess.CorrectCount,
		FinalScore:     sess.FinalScore,
		Deadline:       sess.Deadline,
		Attempts:       append([]domain.AttemptResult(nil), sess.Attempts...),
	}

	if st.countdown != nil {
		v.SecondsLeft = st.countdown.left()
	}

	switch sess.Status {
	case domain.SessionStatusActive, domain.SessionStatusAwaitingEvaluation:
		q := sess.Current()
		v.Question = &QuestionView{
			Index:   sess.CurrentIndex,
			Kind:    q.Kind,
			Text:    q.Text,
			Options: append([]string(nil), q.Options...),
			Mark:    q.Mark,
		}
	}

	return v
}
