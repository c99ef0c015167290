package leaderboard_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quickcraft/internal/domain"
	"github.com/victornm/quickcraft/internal/errors"
	"github.com/victornm/quickcraft/internal/event"
	"github.com/victornm/quickcraft/internal/leaderboard"
)

func TestService_ApplyResult(t *testing.T) {
	s := makeService(t)

	err := s.ApplyResult(context.Background(), completed("q1", "u1", 75))
	require.NoError(t, err)

	resp, err := s.GetLeaderboard(context.Background(), leaderboard.GetLeaderboardRequest{
		QuizID: "q1",
	})
	require.NoError(t, err)

	want := &domain.Leaderboard{
		QuizID: "q1",
		Entries: []domain.LeaderboardEntry{
			{UserID: "u1", Score: 75},
		},
	}
	require.Equal(t, want, resp)
}

func TestService_KeepsBestScorePerUser(t *testing.T) {
	s := makeService(t)

	for _, e := range []domain.EventSessionCompleted{
		completed("q1", "u1", 60),
		completed("q1", "u1", 90),
		completed("q1", "u1", 40),
	} {
		require.NoError(t, s.ApplyResult(context.Background(), e))
	}

	resp, err := s.GetLeaderboard(context.Background(), leaderboard.GetLeaderboardRequest{
		QuizID: "q1",
	})
	require.NoError(t, err)
	require.Equal(t, []domain.LeaderboardEntry{
		{UserID: "u1", Score: 90},
	}, resp.Entries, "a lower retake never demotes a user")
}

func TestService_RanksBestScoreFirst(t *testing.T) {
	s := makeService(t)

	for _, e := range []domain.EventSessionCompleted{
		completed("q1", "u1", 60),
		completed("q1", "u2", 100),
		completed("q1", "u3", 80),
	} {
		require.NoError(t, s.ApplyResult(context.Background(), e))
	}

	resp, err := s.GetLeaderboard(context.Background(), leaderboard.GetLeaderboardRequest{
		QuizID: "q1",
	})
	require.NoError(t, err)
	require.Equal(t, []domain.LeaderboardEntry{
		{UserID: "u2", Score: 100},
		{UserID: "u3", Score: 80},
		{UserID: "u1", Score: 60},
	}, resp.Entries)
}

func TestService_GetLeaderboard_Unknown(t *testing.T) {
	s := makeService(t)

	_, err := s.GetLeaderboard(context.Background(), leaderboard.GetLeaderboardRequest{
		QuizID: "never-played",
	})
	require.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestService_PublishLeaderboardUpdated(t *testing.T) {
	type (
		inputs struct {
			receivedEvents []domain.EventSessionCompleted
		}

		outputs struct {
			publishedEvents []domain.EventLeaderboardUpdated
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"publishes leaderboard.updated after a session completes": {
			arrange: func() inputs {
				return inputs{
					receivedEvents: []domain.EventSessionCompleted{
						completed("q1", "u1", 75),
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.publishedEvents, 1)
				require.Equal(t, domain.Leaderboard{
					QuizID: "q1",
					Entries: []domain.LeaderboardEntry{
						{UserID: "u1", Score: 75},
					},
				}, out.publishedEvents[0].Leaderboard)
			},
		},

		"publishes one event per completion across different quizzes": {
			arrange: func() inputs {
				return inputs{
					receivedEvents: []domain.EventSessionCompleted{
						completed("q1", "u1", 75),
						completed("q2", "u2", 50),
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.publishedEvents, 2)
			},
		},

		"a non-improving retake still publishes the current ranking": {
			arrange: func() inputs {
				return inputs{
					receivedEvents: []domain.EventSessionCompleted{
						completed("q1", "u1", 90),
						completed("q1", "u1", 30),
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.publishedEvents, 2)
				for _, e := range out.publishedEvents {
					require.Equal(t, []domain.LeaderboardEntry{
						{UserID: "u1", Score: 90},
					}, e.Leaderboard.Entries)
				}
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in, out := tt.arrange(), outputs{}

			eb := event.NewBus()

			var mu sync.Mutex
			eb.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
				mu.Lock()
				out.publishedEvents = append(out.publishedEvents, e.(domain.EventLeaderboardUpdated))
				mu.Unlock()
				return nil
			})

			s := makeService(t,
				withEventBus(eb),
			)

			for _, e := range in.receivedEvents {
				err := s.ApplyResult(context.Background(), e)
				require.NoError(t, err)
			}

			eb.Stop()

			tt.assert(t, out)
		})
	}
}

func completed(quizID, userID string, score int) domain.EventSessionCompleted {
	return domain.EventSessionCompleted{
		Record: domain.PerformanceRecord{
			UserID:    userID,
			QuizID:    quizID,
			QuizTitle: "Quiz " + quizID,
			Score:     score,
			Timestamp: time.Now(),
		},
	}
}

func makeService(t *testing.T, opts ...options) *leaderboard.Service {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	c := leaderboard.Config{
		EventBus: event.NewBus(),
		Redis:    rc,
		Prefix:   "quickcraft",
	}

	for _, opt := range opts {
		opt(&c)
	}

	return leaderboard.NewService(c)
}

type options func(c *leaderboard.Config)

func withEventBus(eb *event.Bus) options {
	return func(c *leaderboard.Config) {
		c.EventBus = eb
	}
}
