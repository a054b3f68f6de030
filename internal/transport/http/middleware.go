package http

import (
	"context"
	"net/http"
	"strings"

	"campus-quiz-service/internal/domain"
)

type contextKey string

const userIDKey contextKey = "userID"

// sessionCookie carries the JWT; httpOnly so scripts cannot read it.
const sessionCookie = "token"

// requireAuth extracts the session from the auth cookie or a bearer
// header and rejects the request with 401 otherwise. The user id the
// handlers see always comes from here, never from a request body.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if cookie, err := r.Cookie(sessionCookie); err == nil {
				token = cookie.Value
			}
		}
		if token == "" {
			s.clearSessionCookie(w)
			writeError(w, domain.ErrUnauthorized)
			return
		}

		userID, err := s.tokens.Verify(token)
		if err != nil {
			s.clearSessionCookie(w)
			writeError(w, domain.ErrUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
