package user

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
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

type Service struct {
	db *pgxpool.Pool
}

func NewService(c Config) *Service {
	return &Service{
		db: c.DB,
	}
}

// CreateOrFind returns the user with the given username, creating it on
// first sight. Usernames are trimmed; empty after trimming is rejected.
func (s *Service) CreateOrFind(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.InvalidArgumentf("username is required")
	}

	const selStmt = `SELECT user_id, username, create_time FROM users WHERE username = $1;`

	u := &domain.User{}
	err := s.db.QueryRow(ctx, selStmt, username).Scan(&u.UserID, &u.Username, &u.CreateTime)
	if err == nil {
		return u, nil
	}
	if !stderrors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("select user: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	u = &domain.User{
		UserID:     id.String(),
		Username:   username,
		CreateTime: time.Now(),
	}

	const insStmt = `INSERT INTO users (user_id, username, create_time) VALUES ($1, $2, $3);`

	if _, err := s.db.Exec(ctx, insStmt, id, u.Username, u.CreateTime); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, userID string) (*domain.User, error) {
	const stmt = `SELECT user_id, username, create_time FROM users WHERE user_id = $1;`

	u := &domain.User{}
	err := s.db.QueryRow(ctx, stmt, userID).Scan(&u.UserID, &u.Username, &u.CreateTime)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NotFoundf("user not found: %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}

	return u, nil
}
