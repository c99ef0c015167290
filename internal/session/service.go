package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/quickcraft/internal/domain"
	"github.com/victornm/quickcraft/internal/errors"
	"github.com/victornm/quickcraft/internal/evaluate"
	"github.com/victornm/quickcraft/internal/event"
)

const (
	feedbackTheoryCorrect   = "Good job! Your answer is correct."
	feedbackTheoryIncorrect = "Your answer is not correct. Here's the expected answer."
)

// Catalog is the read-only quiz lookup the engine depends on.
type Catalog interface {
	Fetch(ctx context.Context, quizID string) (*domain.Quiz, error)
}

// Recorder persists the final summary of a finished session.
type Recorder interface {
	Record(ctx context.Context, rec domain.PerformanceRecord) error
}

type Config struct {
	Catalog       Catalog
	Judge         evaluate.Judge
	Recorder      Recorder
	EventBus      *event.Bus
	NewTickerFunc func(d time.Duration) Ticker
	Now           func() time.Time
}

// Service drives quiz sessions: it loads the quiz, arms the optional
// countdown, routes each submission to the grading strategy for the
// question's kind, and finalizes exactly once into a performance record.
// Sessions live in memory only; abandoning one discards it entirely.
type Service struct {
	catalog   Catalog
	judge     evaluate.Judge
	recorder  Recorder
	eb        *event.Bus
	newTicker func(d time.Duration) Ticker
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*state
}

// state pairs a session with its clock. Its mutex serializes every
// controller operation on the session, so transitions are atomic with
// respect to observed state.
type state struct {
	mu        sync.Mutex
	sess      *Session
	countdown *countdown
	stopTimer chan struct{}
	stopped   bool
}

func NewService(c Config) *Service {
	s := &Service{
		catalog:   c.Catalog,
		judge:     c.Judge,
		recorder:  c.Recorder,
		eb:        c.EventBus,
		newTicker: c.NewTickerFunc,
		now:       c.Now,
		sessions:  make(map[string]*state),
	}

	if s.newTicker == nil {
		s.newTicker = newRealTicker
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

type CreateRequest struct {
	QuizID string
	UserID string
}

// Create fetches the quiz and opens a session in Setup. A missing or
// structurally invalid quiz aborts creation; no partial session exists.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*View, error) {
	if req.QuizID == "" || req.UserID == "" {
		return nil, errors.InvalidArgumentf("quiz ID and user ID are required")
	}

	quiz, err := s.catalog.Fetch(ctx, req.QuizID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	st := &state{
		sess: newSession(id.String(), req.UserID, quiz),
	}

	s.mu.Lock()
	s.sessions[st.sess.SessionID] = st
	s.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	return snapshot(st), nil
}

type StartRequest struct {
	SessionID    string
	TimerMinutes *int
}

// Start moves Setup to Active, arming the countdown when a timer was
// requested.
func (s *Service) Start(ctx context.Context, req StartRequest) (*View, error) {
	st, err := s.get(req.SessionID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	d, err := st.sess.Start(req.TimerMinutes, s.now())
	if err != nil {
		return nil, err
	}

	if d > 0 {
		s.armTimer(st, d)
	}

	return snapshot(st), nil
}

type SubmitRequest struct {
	SessionID      string
	SelectedOption *int
	Text           string
}

type SubmitResponse struct {
	Session *View

	IsCorrect    bool
	AwardedScore int
	Feedback     string
	// CorrectIndex is revealed after an objective answer is graded.
	CorrectIndex int
	// SampleAnswer is revealed only for a wrong theory answer.
	SampleAnswer string
}

// Submit routes the answer to the grading strategy of the current
// question's kind. Objective grading is synchronous and always succeeds;
// theory grading suspends the session on the judge and may fail with a
// retryable error, leaving the question unanswered.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	st, err := s.get(req.SessionID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()

	if st.sess.Status != domain.SessionStatusActive {
		defer st.mu.Unlock()
		return nil, errors.FailedPreconditionf("session %s is not active", req.SessionID)
	}

	q := st.sess.Current()
	switch q.Kind {
	case domain.QuestionKindObjective:
		defer st.mu.Unlock()
		return s.submitObjective(st, q, req)
	case domain.QuestionKindTheory:
		// submitTheory manages the lock around the judge call.
		return s.submitTheory(ctx, st, q, req)
	default:
		defer st.mu.Unlock()
		return nil, errors.InvalidArgumentf("unknown question kind %q", q.Kind)
	}
}

func (s *Service) submitObjective(st *state, q domain.Question, req SubmitRequest) (*SubmitResponse, error) {
	if req.SelectedOption == nil {
		return nil, errors.InvalidArgumentf("selected option is required for an objective question")
	}

	correct := evaluate.Objective(q, *req.SelectedOption)
	if err := st.sess.SubmitObjective(*req.SelectedOption, correct, s.now()); err != nil {
		return nil, err
	}

	return &SubmitResponse{
		Session:      snapshot(st),
		IsCorrect:    correct,
		AwardedScore: boolToScore(correct, 1),
		CorrectIndex: q.CorrectIndex,
	}, nil
}

// submitTheory is called with st.mu held and releases it around the judge
// call so the timer keeps running while the verdict is pending. Only the
// submission that entered AwaitingEvaluation can land a result; anything
// arriving while suspended is rejected by the state check in Submit.
func (s *Service) submitTheory(ctx context.Context, st *state, q domain.Question, req SubmitRequest) (*SubmitResponse, error) {
	if err := st.sess.BeginTheory(req.Text); err != nil {
		st.mu.Unlock()
		return nil, err
	}
	st.mu.Unlock()

	res, err := evaluate.Theory(ctx, s.judge, q, req.Text)

	st.mu.Lock()
	defer st.mu.Unlock()

	if err != nil {
		st.sess.FailTheory()
		return nil, err
	}

	// The session may have expired and finalized while the judge was
	// thinking; the verdict is dropped on the floor in that case.
	if st.sess.Status != domain.SessionStatusAwaitingEvaluation {
		return nil, errors.FailedPreconditionf("session %s is no longer awaiting evaluation", req.SessionID)
	}

	feedback := feedbackTheoryCorrect
	sample := ""
	if !res.IsCorrect {
		feedback = feedbackTheoryIncorrect
		sample = q.ExpectedAnswer
	}

	if err := st.sess.CompleteTheory(res.IsCorrect, feedback, s.now()); err != nil {
		return nil, err
	}

	return &SubmitResponse{
		Session:      snapshot(st),
		IsCorrect:    res.IsCorrect,
		AwardedScore: boolToScore(res.IsCorrect, q.Mark),
		Feedback:     feedback,
		SampleAnswer: sample,
	}, nil
}

// Advance moves to the next question, or finalizes after the last one.
func (s *Service) Advance(ctx context.Context, sessionID string) (*View, error) {
	st, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	finished, err := st.sess.Advance()
	if err != nil {
		return nil, err
	}

	if finished {
		s.finalize(ctx, st)
	}

	return snapshot(st), nil
}

// Get returns a point-in-time view of a session.
func (s *Service) Get(sessionID string) (*View, error) {
	st, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return snapshot(st), nil
}

// Abandon discards the in-memory session without persisting anything.
func (s *Service) Abandon(sessionID string) error {
	s.mu.Lock()
	st, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return errors.NotFoundf("session not found: %s", sessionID)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.haltTimer()
	return nil
}

func (s *Service) get(sessionID string) (*state, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return nil, errors.NotFoundf("session not found: %s", sessionID)
	}
	return st, nil
}

// finalize computes the score over the fixed denominator, writes the
// performance record best-effort and seals the session. Caller holds
// st.mu. Idempotent: a second call is a no-op.
func (s *Service) finalize(ctx context.Context, st *state) {
	score := st.sess.Score()
	if !st.sess.Complete(score) {
		return
	}

	st.haltTimer()

	rec := domain.PerformanceRecord{
		UserID:    st.sess.UserID,
		QuizID:    st.sess.Quiz().QuizID,
		QuizTitle: st.sess.Quiz().Title,
		Score:     score,
		Timestamp: s.now(),
	}

	// A storage failure never blocks completion.
	if err := s.recorder.Record(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "session: record performance failed",
			"session_id", st.sess.SessionID,
			"error", err,
		)
	}

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventSessionCompleted{Record: rec})
	}
}

// armTimer starts the countdown goroutine. Caller holds st.mu.
func (s *Service) armTimer(st *state, d time.Duration) {
	st.countdown = newCountdown(d)
	st.stopTimer = make(chan struct{})

	t := s.newTicker(time.Second)
	stop := st.stopTimer

	go func() {
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C():
				if s.handleTick(st) {
					return
				}
			}
		}
	}()
}

// handleTick consumes one second of the countdown. It reports true when
// the timer goroutine should exit, either because the session left the
// running states or because the countdown fired.
func (s *Service) handleTick(st *state) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	switch st.sess.Status {
	case domain.SessionStatusActive, domain.SessionStatusAwaitingEvaluation:
	default:
		return true
	}

	if !st.countdown.tick() {
		return false
	}

	if st.sess.Expire() {
		s.finalize(context.Background(), st)
	}
	return true
}

// haltTimer stops the countdown goroutine. Caller holds st.mu.
func (st *state) haltTimer() {
	if st.stopTimer != nil && !st.stopped {
		close(st.stopTimer)
		st.stopped = true
	}
}
