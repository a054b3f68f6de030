package http

import "net/http"

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.quiz.Stats(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	rows, err := s.quiz.Performance(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
