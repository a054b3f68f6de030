package auth

import (
	"context"
	"time"

	"campus-quiz-service/internal/domain"

	"github.com/google/uuid"
)

// UserStore persists registered students.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) error
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
}

// Service implements register and login. Sessions themselves are stateless
// JWTs; logout is a cookie clear at the transport layer.
type Service struct {
	users  UserStore
	tokens *TokenManager
	now    func() time.Time
}

func NewService(users UserStore, tokens *TokenManager) *Service {
	return &Service{users: users, tokens: tokens, now: time.Now}
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// Login verifies credentials and issues a session token. A missing user
// and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}
	if !CheckPassword(user.PasswordHash, password) {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", domain.User{}, err
	}
	user.PasswordHash = ""
	return token, user, nil
}
