package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/victornm/quickcraft/internal/domain"
)

const maxConcurrent = 100

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	RankingEntry struct {
		UserID string `json:"user_id"`
		Score  string `json:"score"`
	}

	Ranking struct {
		QuizID  string         `json:"quiz_id"`
		Entries []RankingEntry `json:"entries"`
	}
)

// PublishSessionCompleted notifies the taker that their result was
// recorded.
func (a *API) PublishSessionCompleted(ctx context.Context, e domain.EventSessionCompleted) error {
	rec := e.Record

	data := PerformanceRecord{
		UserID:    rec.UserID,
		QuizID:    rec.QuizID,
		QuizTitle: rec.QuizTitle,
		Score:     rec.Score,
		Timestamp: rec.Timestamp.Format(timeFormat),
	}

	return a.publishNotification(ctx, a.userChannel(rec.UserID), e.Name(), data)
}

// PublishLeaderboardUpdated fans the refreshed ranking out to every
// ranked user's channel.
func (a *API) PublishLeaderboardUpdated(ctx context.Context, e domain.EventLeaderboardUpdated) error {
	l := e.Leaderboard

	data := Ranking{
		QuizID:  l.QuizID,
		Entries: make([]RankingEntry, 0, len(l.Entries)),
	}

	for _, entry := range l.Entries {
		data.Entries = append(data.Entries, RankingEntry{
			UserID: entry.UserID,
			Score:  strconv.FormatFloat(entry.Score, 'f', -1, 64),
		})
	}

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	for _, entry := range data.Entries {
		entry := entry
		eg.Go(func() error {
			return a.publishNotification(ctx, a.userChannel(entry.UserID), e.Name(), data)
		})
	}

	return eg.Wait()
}

func (a *API) publishNotification(ctx context.Context, channel, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, channel, b).Err()
}

func (a *API) userChannel(userID string) string {
	return fmt.Sprintf("%s:user:%s", a.prefix, userID)
}
