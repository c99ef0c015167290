package leaderboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/victornm/quickcraft/internal/domain"
	"github.com/victornm/quickcraft/internal/errors"
	"github.com/victornm/quickcraft/internal/event"
)

type Config struct {
	EventBus *event.Bus
	Redis    redis.UniversalClient
	Prefix   string
}

// Service keeps a best-score-per-user ranking for each quiz, fed by
// session completion events. It is a projection over performance
// records, never the source of truth.
type Service struct {
	eb     *event.Bus
	redis  redis.UniversalClient
	prefix string
}

func NewService(c Config) *Service {
	s := &Service{
		eb:     c.EventBus,
		redis:  c.Redis,
		prefix: c.Prefix,
	}

	s.eb.Subscribe(domain.EventNameSessionCompleted, func(ctx context.Context, e event.Event) error {
		return s.ApplyResult(ctx, e.(domain.EventSessionCompleted))
	})

	return s
}

type GetLeaderboardRequest struct {
	QuizID string
}

// GetLeaderboard returns all ranked users for a quiz, best score first.
func (s *Service) GetLeaderboard(ctx context.Context, req GetLeaderboardRequest) (*domain.Leaderboard, error) {
	res, err := s.redis.ZRevRangeWithScores(ctx, s.key(req.QuizID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}

	if len(res) == 0 {
		return nil, errors.NotFoundf("leaderboard not found: quiz=%s", req.QuizID)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(res))
	for _, z := range res {
		entries = append(entries, domain.LeaderboardEntry{
			UserID: z.Member.(string),
			Score:  z.Score,
		})
	}

	return &domain.Leaderboard{
		QuizID:  req.QuizID,
		Entries: entries,
	}, nil
}

// ApplyResult records a finished session's score, keeping only the best
// score per user, then publishes the refreshed ranking.
func (s *Service) ApplyResult(ctx context.Context, e domain.EventSessionCompleted) error {
	rec := e.Record

	if err := s.redis.ZAddGT(ctx, s.key(rec.QuizID), redis.Z{
		Score:  float64(rec.Score),
		Member: rec.UserID,
	}).Err(); err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}

	l, err := s.GetLeaderboard(ctx, GetLeaderboardRequest{QuizID: rec.QuizID})
	if err != nil {
		return fmt.Errorf("reload leaderboard: quiz=%s: %w", rec.QuizID, err)
	}

	s.eb.Publish(ctx, domain.EventLeaderboardUpdated{
		Leaderboard: *l,
	})

	return nil
}

func (s *Service) key(quizID string) string {
	return fmt.Sprintf("%s:%s:leaderboard", s.prefix, quizID)
}
