package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/victornm/quickcraft/internal/api"
	"github.com/victornm/quickcraft/internal/catalog"
	"github.com/victornm/quickcraft/internal/evaluate"
	"github.com/victornm/quickcraft/internal/event"
	"github.com/victornm/quickcraft/internal/explain"
	"github.com/victornm/quickcraft/internal/leaderboard"
	"github.com/victornm/quickcraft/internal/performance"
	"github.com/victornm/quickcraft/internal/session"
	"github.com/victornm/quickcraft/internal/telemetry"
	"github.com/victornm/quickcraft/internal/user"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	Redis struct {
		Leaderboard struct {
			Addrs  []string
			Pass   string
			Prefix string
		}

		Pubsub struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Postgres struct {
		Catalog struct {
			Addr string
			User string
			Pass string
			Name string
		}

		Performance struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}

	Judge struct {
		URL    string
		APIKey string
	}
}

func (c Config) Validate() error {
	if c.HTTP.Port == 0 {
		return fmt.Errorf("http.port is required")
	}
	if c.Judge.URL == "" {
		return fmt.Errorf("judge.url is required")
	}
	return nil
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			leaderboard redis.UniversalClient
			pubsub      redis.UniversalClient
		}

		postgres struct {
			catalog     *pgxpool.Pool
			performance *pgxpool.Pool
		}
	}

	service struct {
		catalog     *catalog.Service
		user        *user.Service
		session     *session.Service
		performance *performance.Service
		leaderboard *leaderboard.Service
		explain     *explain.Service
	}

	http *http.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	connect := func(addrs []string, pass string) (redis.UniversalClient, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    addrs,
			Password: pass,
		})

		if err := telemetry.MonitorRedis(r); err != nil {
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return r, nil
	}

	var err error
	s.infra.redis.leaderboard, err = connect(s.c.Redis.Leaderboard.Addrs, s.c.Redis.Leaderboard.Pass)
	if err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}

	s.infra.redis.pubsub, err = connect(s.c.Redis.Pubsub.Addrs, s.c.Redis.Pubsub.Pass)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}

	return nil
}

func (s *Server) initPostgres() (err error) {
	connect := func(addr, user, pass, name string) (*pgxpool.Pool, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", user, pass, addr, name))
		if err != nil {
			return nil, err
		}

		db, err := pgxpool.NewWithConfig(ctx, cc)
		if err != nil {
			return nil, err
		}

		if err := db.Ping(ctx); err != nil {
			return nil, err
		}

		return db, nil
	}

	s.infra.postgres.catalog, err = connect(s.c.Postgres.Catalog.Addr, s.c.Postgres.Catalog.User, s.c.Postgres.Catalog.Pass, s.c.Postgres.Catalog.Name)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	s.infra.postgres.performance, err = connect(s.c.Postgres.Performance.Addr, s.c.Postgres.Performance.User, s.c.Postgres.Performance.Pass, s.c.Postgres.Performance.Name)
	if err != nil {
		return fmt.Errorf("performance: %w", err)
	}

	return nil
}

func (s *Server) initService() {
	s.service.catalog = catalog.NewService(catalog.Config{
		DB: s.infra.postgres.catalog,
	})

	s.service.user = user.NewService(user.Config{
		DB: s.infra.postgres.catalog,
	})

	s.service.performance = performance.NewService(performance.Config{
		DB: s.infra.postgres.performance,
	})

	s.service.session = session.NewService(session.Config{
		Catalog:  s.service.catalog,
		Judge:    evaluate.NewHTTPJudge(s.c.Judge.URL, s.c.Judge.APIKey),
		Recorder: s.service.performance,
		EventBus: s.eb,
	})

	s.service.leaderboard = leaderboard.NewService(leaderboard.Config{
		EventBus: s.eb,
		Redis:    s.infra.redis.leaderboard,
		Prefix:   s.c.Redis.Leaderboard.Prefix,
	})

	s.service.explain = explain.NewService()
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())

	api.New(api.Config{
		Engine:       e,
		EventBus:     s.eb,
		Catalog:      s.service.catalog,
		User:         s.service.user,
		Session:      s.service.session,
		Performance:  s.service.performance,
		Leaderboard:  s.service.leaderboard,
		Explain:      s.service.explain,
		Redis:        s.infra.redis.pubsub,
		PubsubPrefix: s.c.Redis.Pubsub.Prefix,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	slog.InfoContext(ctx, "server: shutdown completed")
}
