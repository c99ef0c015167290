package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/victornm/quickcraft/internal/catalog"
	"github.com/victornm/quickcraft/internal/domain"
	"github.com/victornm/quickcraft/internal/errors"
	"github.com/victornm/quickcraft/internal/event"
	"github.com/victornm/quickcraft/internal/explain"
	"github.com/victornm/quickcraft/internal/leaderboard"
	"github.com/victornm/quickcraft/internal/performance"
	"github.com/victornm/quickcraft/internal/session"
	"github.com/victornm/quickcraft/internal/user"
)

type Config struct {
	Engine       *gin.Engine
	EventBus     *event.Bus
	Catalog      *catalog.Service
	User         *user.Service
	Session      *session.Service
	Performance  *performance.Service
	Leaderboard  *leaderboard.Service
	Explain      *explain.Service
	Redis        Redis
	PubsubPrefix string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	cs *catalog.Service
	us *user.Service
	ss *session.Service
	ps *performance.Service
	ls *leaderboard.Service
	es *explain.Service

	redis  Redis
	prefix string
}

func New(c Config) *API {
	a := &API{
		cs:     c.Catalog,
		us:     c.User,
		ss:     c.Session,
		ps:     c.Performance,
		ls:     c.Leaderboard,
		es:     c.Explain,
		redis:  c.Redis,
		prefix: c.PubsubPrefix,
	}

	g := c.Engine.Group("/api")

	g.GET("/health", a.Health)

	g.POST("/users", a.CreateUser)
	g.GET("/users/:id", a.GetUser)

	g.POST("/quizzes", a.CreateQuiz)
	g.GET("/quizzes", a.ListQuizzes)
	g.GET("/quizzes/:id", a.GetQuiz)
	g.PUT("/quizzes/:id", a.UpdateQuiz)
	g.DELETE("/quizzes/:id", a.DeleteQuiz)
	g.GET("/quizzes/:id/leaderboard", a.GetQuizLeaderboard)

	g.GET("/theory", a.ListTheoryQuestions)
	g.POST("/theory", a.CreateTheoryQuestion)

	g.POST("/sessions", a.CreateSession)
	g.POST("/sessions/:id/start", a.StartSession)
	g.POST("/sessions/:id/answer", a.SubmitAnswer)
	g.POST("/sessions/:id/advance", a.AdvanceSession)
	g.GET("/sessions/:id", a.GetSession)
	g.DELETE("/sessions/:id", a.AbandonSession)

	g.POST("/explain", a.Explain)

	g.GET("/performance/:userId", a.GetPerformance)

	// Event handlers pushing notifications out to subscribers.
	c.EventBus.Subscribe(domain.EventNameSessionCompleted, func(ctx context.Context, e event.Event) error {
		return a.PublishSessionCompleted(ctx, e.(domain.EventSessionCompleted))
	})
	c.EventBus.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
		return a.PublishLeaderboardUpdated(ctx, e.(domain.EventLeaderboardUpdated))
	})

	return a
}

func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func abort(c *gin.Context, err error) {
	e := errors.Convert(err)
	c.AbortWithStatusJSON(e.HTTPStatusCode(), e)
}
