package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/pidruchnyk/internal/content"
	"github.com/abhisek/pidruchnyk/internal/suggest"
	"github.com/abhisek/pidruchnyk/internal/validate"
)

type topicSuggestionsRequest struct {
	Count int `json:"count"`
}

type questionSuggestionsRequest struct {
	Level string `json:"level"`
	Count int    `json:"count"`
}

type applyTopicsRequest struct {
	Suggestions []suggest.TopicSuggestion `json:"suggestions"`
}

type applyQuestionsRequest struct {
	Suggestions []suggest.QuestionSuggestion `json:"suggestions"`
}

type applyTheoryRequest struct {
	Theory content.Text `json:"theory"`
	Fields []string     `json:"fields"`
}

type suggestionsView[T any] struct {
	Suggestions []T `json:"suggestions"`
}

func countOrDefault(n int) int {
	if n <= 0 {
		return defaultSuggestCount
	}
	return n
}

func (s *Server) handleSuggestTopics(w http.ResponseWriter, r *http.Request) {
	var req topicSuggestionsRequest
	if !s.decode(w, r, validate.TopicSuggestions, &req) {
		return
	}
	out, err := s.Suggest.GenerateTopics(r.Context(), chi.URLParam(r, "id"), countOrDefault(req.Count))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestionsView[suggest.TopicSuggestion]{Suggestions: orEmpty(out)})
}

func (s *Server) handleApplyTopics(w http.ResponseWriter, r *http.Request) {
	var req applyTopicsRequest
	if !s.decode(w, r, validate.ApplyTopics, &req) {
		return
	}
	bookID := chi.URLParam(r, "id")
	res, err := s.Suggest.ApplyTopics(r.Context(), bookID, req.Suggestions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.revalidate("/api/books/"+bookID+"/topics", "/api/topics/")
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSuggestQuestions(w http.ResponseWriter, r *http.Request) {
	var req questionSuggestionsRequest
	if !s.decode(w, r, validate.QuestionSuggestions, &req) {
		return
	}
	out, err := s.Suggest.GenerateQuestions(r.Context(), chi.URLParam(r, "id"), req.Level, countOrDefault(req.Count))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestionsView[suggest.QuestionSuggestion]{Suggestions: orEmpty(out)})
}

func (s *Server) handleApplyQuestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req applyQuestionsRequest
	if !s.decode(w, r, validate.ApplyQuestions, &req) {
		return
	}
	topicID := chi.URLParam(r, "id")
	res, err := s.Suggest.ApplyQuestions(ctx, topicID, req.Suggestions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.revalidate("/api/topics/"+topicID+"/questions", "/api/questions/")
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSuggestTheory(w http.ResponseWriter, r *http.Request) {
	var req struct{}
	if !s.decode(w, r, validate.TheorySuggestion, &req) {
		return
	}
	out, err := s.Suggest.GenerateTheory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleApplyTheory(w http.ResponseWriter, r *http.Request) {
	var req applyTheoryRequest
	if !s.decode(w, r, validate.ApplyTheory, &req) {
		return
	}
	t, err := s.Suggest.ApplyTheory(r.Context(), chi.URLParam(r, "id"), req.Theory, req.Fields)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.revalidateTopic(t)
	writeJSON(w, http.StatusOK, t)
}
