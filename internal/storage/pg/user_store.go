package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/DjordjeVuckovic/news-cms/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserStore reads CMS users from the users table.
type UserStore struct {
	db *pgxpool.Pool
}

func NewUserStore(pool *ConnectionPool) *UserStore {
	return &UserStore{db: pool.GetConn()}
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findOne(ctx, "username = $1", username)
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.findOne(ctx, "id = $1", id)
}

// Create inserts a user and returns it with generated id and creation time.
func (s *UserStore) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	u := domain.User{ID: uuid.New(), Username: username, PasswordHash: passwordHash}
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (id, username, password_hash) VALUES ($1, $2, $3) RETURNING created_at`,
		u.ID, u.Username, u.PasswordHash,
	).Scan(&u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user %s: %w", username, err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *UserStore) findOne(ctx context.Context, cond string, arg any) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRow(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE "+cond,
		arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
