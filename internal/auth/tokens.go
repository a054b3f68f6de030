package auth

import (
	"time"

	"campus-quiz-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// TokenManager issues and verifies the HS256 session tokens carried in the
// auth cookie (or a bearer header).
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// NewTokenManagerWithClock injects the clock for expiry tests.
func NewTokenManagerWithClock(secret string, ttl time.Duration, now func() time.Time) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: now}
}

// TTL is the session lifetime, also used for the cookie max-age.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue signs a token for the user id.
func (m *TokenManager) Issue(userID string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses the token and returns the user id. Any parse, signature or
// expiry failure maps to ErrUnauthorized; callers must force
// re-authentication, not treat it as a quiz-domain error.
func (m *TokenManager) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthorized
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return "", domain.ErrUnauthorized
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}
