package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/pidruchnyk/internal/content"
	"github.com/abhisek/pidruchnyk/internal/progress"
	"github.com/abhisek/pidruchnyk/internal/store"
	"github.com/abhisek/pidruchnyk/internal/validate"
)

type topicPayload struct {
	Name     content.Text `json:"name"`
	Theory   content.Text `json:"theory"`
	Position *int         `json:"position"`
}

type theoryView struct {
	TopicID  string `json:"topic_id"`
	Lang     string `json:"lang"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	b, err := s.Store.Books().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	topics, err := s.Store.Topics().ListByBook(r.Context(), b.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(topics))
}

func (s *Server) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	var req topicPayload
	if !s.decode(w, r, validate.Topic, &req) {
		return
	}
	b, err := s.Store.Books().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t := &content.Topic{BookID: b.ID, Name: req.Name.Trimmed(), Theory: req.Theory}
	if req.Position != nil {
		t.Position = *req.Position
	}
	if err := s.Store.Topics().Create(r.Context(), t); err != nil {
		s.writeError(w, r, conflictField(err, "name", r))
		return
	}
	s.revalidate("/api/books/" + b.ID + "/topics")
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	t, err := s.Store.Topics().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTopic(w http.ResponseWriter, r *http.Request) {
	var req topicPayload
	if !s.decode(w, r, validate.Topic, &req) {
		return
	}
	t, err := s.Store.Topics().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t.Name, t.Theory = req.Name.Trimmed(), req.Theory
	if req.Position != nil {
		t.Position = *req.Position
	}
	if err := s.Store.Topics().Update(r.Context(), t); err != nil {
		s.writeError(w, r, conflictField(err, "name", r))
		return
	}
	s.revalidateTopic(t)
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.Store.Topics().Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	err = s.Store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.Topics().Delete(ctx, t.ID); err != nil {
			return err
		}
		// Its questions went with it.
		return progress.RefreshBook(ctx, tx, t.BookID)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.revalidateTopic(t)
	s.revalidate("/api/questions/")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetTheory(w http.ResponseWriter, r *http.Request) {
	t, err := s.Store.Topics().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	lang := langFrom(r.Context())
	src := t.Theory.In(lang)
	html, err := s.Markdown.HTML(src)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, theoryView{TopicID: t.ID, Lang: lang, Markdown: src, HTML: html})
}

func (s *Server) revalidateTopic(t *content.Topic) {
	s.revalidate("/api/topics/"+t.ID, "/api/books/"+t.BookID+"/topics")
}
