package catalog

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/quickcraft/internal/domain"
	"github.com/victornm/quickcraft/internal/errors"
)

type Config struct {
	DB *pgxpool.Pool
}

// Service is the quiz catalog: authoring CRUD plus the read-only fetch
// the session engine depends on. Quizzes are immutable once fetched.
type Service struct {
	db *pgxpool.Pool
}

func NewService(c Config) *Service {
	return &Service{
		db: c.DB,
	}
}

type CreateQuizRequest struct {
	Title            string
	Description      string
	TimerMode        bool
	TimeLimitMinutes int
	Questions        []domain.Question
	Creator          string
}

// CreateQuiz validates and stores a new quiz.
func (s *Service) CreateQuiz(ctx context.Context, req CreateQuizRequest) (*domain.Quiz, error) {
	q := &domain.Quiz{
		Title:            req.Title,
		Description:      req.Description,
		TimerMode:        req.TimerMode,
		TimeLimitMinutes: req.TimeLimitMinutes,
		Questions:        req.Questions,
		Creator:          req.Creator,
		CreateTime:       time.Now(),
	}

	if err := Validate(q); err != nil {
		return nil, err
	}

	if err := s.insertQuiz(ctx, q); err != nil {
		return nil, err
	}

	return q, nil
}

func (s *Service) insertQuiz(ctx context.Context, q *domain.Quiz) (err error) {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate quiz ID: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const (
		insQuizStmt = `
INSERT INTO quizzes (quiz_id, title, description, timer_mode, time_limit_minutes, creator, create_time)
VALUES ($1, $2, $3, $4, $5, $6, $7);`
		insQuestionStmt = `
INSERT INTO quiz_questions (quiz_id, position, kind, text, options, correct_index, expected_answer, mark)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	)

	_, err = tx.Exec(ctx, insQuizStmt, id, q.Title, q.Description, q.TimerMode, q.TimeLimitMinutes, q.Creator, q.CreateTime)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	q.QuizID = id.String()

	for i, qq := range q.Questions { // TODO: Batch insert
		_, err = tx.Exec(ctx, insQuestionStmt, id, i, qq.Kind, qq.Text, qq.Options, qq.CorrectIndex, qq.ExpectedAnswer, qq.Mark)
		if err != nil {
			return fmt.Errorf("insert question %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// Fetch loads a full quiz by ID for a session. A structurally invalid
// stored quiz fails closed: no session may start on it.
func (s *Service) Fetch(ctx context.Context, quizID string) (*domain.Quiz, error) {
	const quizStmt = `
SELECT quiz_id, title, description, timer_mode, time_limit_minutes, creator, create_time
FROM quizzes WHERE quiz_id = $1;`

	q := &domain.Quiz{}
	err := s.db.QueryRow(ctx, quizStmt, quizID).Scan(
		&q.QuizID, &q.Title, &q.Description, &q.TimerMode, &q.TimeLimitMinutes, &q.Creator, &q.CreateTime,
	)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NotFoundf("quiz not found: %s", quizID)
	}
	if err != nil {
		return nil, fmt.Errorf("select quiz: %w", err)
	}

	q.Questions, err = s.selectQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}

	if err := Validate(q); err != nil {
		return nil, err
	}

	return q, nil
}

func (s *Service) selectQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	const stmt = `
SELECT kind, text, options, correct_index, expected_answer, mark
FROM quiz_questions WHERE quiz_id = $1 ORDER BY position;`

	rows, err := s.db.Query(ctx, stmt, quizID)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}

	questions, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Question, error) {
		var q domain.Question
		if err := r.Scan(&q.Kind, &q.Text, &q.Options, &q.CorrectIndex, &q.ExpectedAnswer, &q.Mark); err != nil {
			return domain.Question{}, err
		}
		return q, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect questions: %w", err)
	}

	return questions, nil
}

// ListQuizzes returns quiz headers newest first. Questions are not loaded.
func (s *Service) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	const stmt = `
SELECT quiz_id, title, description, timer_mode, time_limit_minutes, creator, create_time
FROM quizzes ORDER BY create_time DESC;`

	rows, err := s.db.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("select quizzes: %w", err)
	}

	quizzes, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Quiz, error) {
		var q domain.Quiz
		if err := r.Scan(&q.QuizID, &q.Title, &q.Description, &q.TimerMode, &q.TimeLimitMinutes, &q.Creator, &q.CreateTime); err != nil {
			return domain.Quiz{}, err
		}
		return q, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect quizzes: %w", err)
	}

	return quizzes, nil
}

type UpdateQuizRequest struct {
	QuizID      string
	Title       string
	Description string
	Questions   []domain.Question
}

// UpdateQuiz replaces the mutable fields of a quiz. Empty fields keep
// their stored value, matching the authoring UI semantics.
func (s *Service) UpdateQuiz(ctx context.Context, req UpdateQuizRequest) (*domain.Quiz, error) {
	q, err := s.Fetch(ctx, req.QuizID)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		q.Title = req.Title
	}
	if req.Description != "" {
		q.Description = req.Description
	}
	if len(req.Questions) > 0 {
		q.Questions = req.Questions
	}

	if err := Validate(q); err != nil {
		return nil, err
	}

	if err := s.replaceQuiz(ctx, q); err != nil {
		return nil, err
	}

	return q, nil
}

func (s *Service) replaceQuiz(ctx context.Context, q *domain.Quiz) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const (
		updQuizStmt = `
UPDATE quizzes SET title = $2, description = $3 WHERE quiz_id = $1;`
		delQuestionsStmt = `DELETE FROM quiz_questions WHERE quiz_id = $1;`
		insQuestionStmt  = `
INSERT INTO quiz_questions (quiz_id, position, kind, text, options, correct_index, expected_answer, mark)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	)

	if _, err = tx.Exec(ctx, updQuizStmt, q.QuizID, q.Title, q.Description); err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if _, err = tx.Exec(ctx, delQuestionsStmt, q.QuizID); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	for i, qq := range q.Questions {
		if _, err = tx.Exec(ctx, insQuestionStmt, q.QuizID, i, qq.Kind, qq.Text, qq.Options, qq.CorrectIndex, qq.ExpectedAnswer, qq.Mark); err != nil {
			return fmt.Errorf("insert question %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// DeleteQuiz removes a quiz and its questions.
func (s *Service) DeleteQuiz(ctx context.Context, quizID string) error {
	const stmt = `DELETE FROM quizzes WHERE quiz_id = $1;`

	tag, err := s.db.Exec(ctx, stmt, quizID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFoundf("quiz not found: %s", quizID)
	}

	return nil
}

type CreateTheoryQuestionRequest struct {
	Text         string
	SampleAnswer string
	Creator      string
}

// CreateTheoryQuestion stores a standalone theory question in the bank.
// Quizzes embedding the same question keep their own copy; the two rows
// never share state.
func (s *Service) CreateTheoryQuestion(ctx context.Context, req CreateTheoryQuestionRequest) (*domain.TheoryQuestion, error) {
	if req.Text == "" || req.SampleAnswer == "" || req.Creator == "" {
		return nil, errors.InvalidArgumentf("text, sample answer and creator are required")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate question ID: %w", err)
	}

	tq := &domain.TheoryQuestion{
		QuestionID:   id.String(),
		Text:         req.Text,
		SampleAnswer: req.SampleAnswer,
		Creator:      req.Creator,
		CreateTime:   time.Now(),
	}

	const stmt = `
INSERT INTO theory_questions (question_id, text, sample_answer, creator, create_time)
VALUES ($1, $2, $3, $4, $5);`

	if _, err := s.db.Exec(ctx, stmt, id, tq.Text, tq.SampleAnswer, tq.Creator, tq.CreateTime); err != nil {
		return nil, fmt.Errorf("insert theory question: %w", err)
	}

	return tq, nil
}

// ListTheoryQuestions returns the bank newest first.
func (s *Service) ListTheoryQuestions(ctx context.Context) ([]domain.TheoryQuestion, error) {
	const stmt = `
SELECT question_id, text, sample_answer, creator, create_time
FROM theory_questions ORDER BY create_time DESC;`

	rows, err := s.db.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("select theory questions: %w", err)
	}

	questions, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.TheoryQuestion, error) {
		var q domain.TheoryQuestion
		if err := r.Scan(&q.QuestionID, &q.Text, &q.SampleAnswer, &q.Creator, &q.CreateTime); err != nil {
			return domain.TheoryQuestion{}, err
		}
		return q, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect theory questions: %w", err)
	}

	return questions, nil
}
