package postgres

import (
	"context"
	"errors"
	"fmt"

	"campus-quiz-service/internal/domain"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// UserStore persists registered students.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) CreateUser(ctx context.Context, user domain.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.getUser(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM users WHERE email=$1`, email)
}

func (s *UserStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return s.getUser(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM users WHERE id=$1`, id)
}

func (s *UserStore) getUser(ctx context.Context, query, arg string) (domain.User, error) {
	var user domain.User
	err := s.pool.QueryRow(ctx, query, arg).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
