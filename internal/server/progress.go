package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/pidruchnyk/internal/validate"
)

type attempt struct {
	AnswerIDs []string `json:"answer_ids"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	ov, err := s.Progress.Overview(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleStartLearning(w http.ResponseWriter, r *http.Request) {
	bp, err := s.Progress.StartLearningBook(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bp)
}

func (s *Server) handleStopLearning(w http.ResponseWriter, r *http.Request) {
	if err := s.Progress.StopLearningBook(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAttempt(w http.ResponseWriter, r *http.Request) {
	var req attempt
	if !s.decode(w, r, validate.Attempt, &req) {
		return
	}
	res, err := s.Progress.RecordAnswer(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"), req.AnswerIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
