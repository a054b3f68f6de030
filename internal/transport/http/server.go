package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"campus-quiz-service/internal/app"
	"campus-quiz-service/internal/auth"
	"campus-quiz-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Server wires the quiz and auth use cases into the REST + websocket API.
type Server struct {
	quiz          *app.QuizService
	auth          *auth.Service
	tokens        *auth.TokenManager
	feed          *app.ResultsFeed
	secureCookies bool
}

func NewServer(quiz *app.QuizService, authService *auth.Service, tokens *auth.TokenManager, feed *app.ResultsFeed, secureCookies bool) *Server {
	return &Server{
		quiz:          quiz,
		auth:          authService,
		tokens:        tokens,
		feed:          feed,
		secureCookies: secureCookies,
	}
}

// Routes builds the router. Everything under the quiz domain requires an
// authenticated session; auth endpoints and the health check do not.
func (s *Server) Routes(allowedOrigins []string) chi.Router {
	r := chi.NewRouter()

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/quizzes", s.handleListQuizzes)
		r.Get("/quizzes/{id}", s.handleGetQuiz)
		r.Post("/quizzes/submit", s.handleSubmit)
		r.Get("/results/{submissionId}", s.handleGetResult)
		r.Get("/students/stats", s.handleStats)
		r.Get("/students/performance", s.handlePerformance)
		r.Get("/ws/results", s.handleResultsFeed)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrIncompleteAnswers):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorResponse{Message: err.Error()})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Message: message})
}
