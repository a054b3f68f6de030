package http

import (
	"encoding/json"
	"net/http"

	"campus-quiz-service/internal/domain"

	"github.com/go-chi/chi/v5"
)

type quizDetailResponse struct {
	Quiz      domain.Quiz           `json:"quiz"`
	Questions []domain.QuestionView `json:"questions"`
}

type submitRequest struct {
	QuizID  string            `json:"quizId"`
	Answers map[string]string `json:"answers"`
}

func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.quiz.ListQuizzes(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, questions, err := s.quiz.GetQuiz(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizDetailResponse{Quiz: quiz, Questions: questions})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.QuizID == "" {
		badRequest(w, "quizId is required")
		return
	}
	if req.Answers == nil {
		req.Answers = map[string]string{}
	}

	// The user id comes from the session, never the body.
	result, err := s.quiz.Submit(r.Context(), userIDFrom(r.Context()), req.QuizID, req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.quiz.Result(r.Context(), chi.URLParam(r, "submissionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
