package performance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/quickcraft/internal/domain"
	"github.com/victornm/quickcraft/internal/errors"
)

type Config struct {
	DB *pgxpool.Pool
}

// Service is the append-only performance store. Records are never
// updated or deleted; the report is a read-side view computed on demand.
type Service struct {
	db *pgxpool.Pool
}

func NewService(c Config) *Service {
	return &Service{
		db: c.DB,
	}
}

// Record appends one finished session's summary. Failures surface as
// storage errors; callers decide whether they are fatal (the session
// engine treats them as best-effort).
func (s *Service) Record(ctx context.Context, rec domain.PerformanceRecord) error {
	if rec.Score < 0 || rec.Score > 100 {
		return errors.InvalidArgumentf("score %d out of range", rec.Score)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate record ID: %w", err)
	}

	const stmt = `
INSERT INTO performances (record_id, user_id, quiz_id, quiz_title, score, create_time)
VALUES ($1, $2, $3, $4, $5, $6);`

	if _, err := s.db.Exec(ctx, stmt, id, rec.UserID, rec.QuizID, rec.QuizTitle, rec.Score, rec.Timestamp); err != nil {
		return errors.New(errors.CodeUnavailable,
			errors.WithMessagef("insert performance record"),
			errors.WithCause(err),
		)
	}

	return nil
}

// History returns all records for a user, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]domain.PerformanceRecord, error) {
	const stmt = `
SELECT user_id, quiz_id, quiz_title, score, create_time
FROM performances WHERE user_id = $1 ORDER BY create_time DESC;`

	rows, err := s.db.Query(ctx, stmt, userID)
	if err != nil {
		return nil, fmt.Errorf("select performances: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.PerformanceRecord, error) {
		var rec domain.PerformanceRecord
		if err := r.Scan(&rec.UserID, &rec.QuizID, &rec.QuizTitle, &rec.Score, &rec.Timestamp); err != nil {
			return domain.PerformanceRecord{}, err
		}
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect performances: %w", err)
	}

	return records, nil
}

// Report fetches a user's history and folds it into the dashboard view.
func (s *Service) Report(ctx context.Context, userID string) (*domain.PerformanceReport, error) {
	records, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	return BuildReport(records), nil
}
