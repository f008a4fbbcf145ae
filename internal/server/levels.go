package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/pidruchnyk/internal/content"
	"github.com/abhisek/pidruchnyk/internal/i18n"
	"github.com/abhisek/pidruchnyk/internal/progress"
	"github.com/abhisek/pidruchnyk/internal/store"
	"github.com/abhisek/pidruchnyk/internal/validate"
)

type levelPayload struct {
	Code     string       `json:"code"`
	Name     content.Text `json:"name"`
	Position *int         `json:"position"`
}

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := s.Store.Levels().List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(levels))
}

func (s *Server) handleCreateLevel(w http.ResponseWriter, r *http.Request) {
	var req levelPayload
	if !s.decode(w, r, validate.Level, &req) {
		return
	}
	l := &content.Level{Code: req.Code, Name: req.Name.Trimmed()}
	if req.Position != nil {
		l.Position = *req.Position
	}
	ctx := r.Context()
	err := s.Store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.Levels().Create(ctx, l); err != nil {
			return err
		}
		// Learners get a row for the new level.
		return progress.RefreshBooks(ctx, tx)
	})
	if err != nil {
		s.writeError(w, r, conflictField(err, "code", r))
		return
	}
	s.revalidate("/api/levels")
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) handleUpdateLevel(w http.ResponseWriter, r *http.Request) {
	var req levelPayload
	if !s.decode(w, r, validate.Level, &req) {
		return
	}
	l, err := s.Store.Levels().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l.Code, l.Name = req.Code, req.Name.Trimmed()
	if req.Position != nil {
		l.Position = *req.Position
	}
	if err := s.Store.Levels().Update(r.Context(), l); err != nil {
		s.writeError(w, r, conflictField(err, "code", r))
		return
	}
	s.revalidate("/api/levels")
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleDeleteLevel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := s.Store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.Levels().Delete(ctx, chi.URLParam(r, "id")); err != nil {
			return err
		}
		// Score rows of the level are gone; subject sums follow.
		return progress.RefreshBooks(ctx, tx)
	})
	if errors.Is(err, store.ErrConflict) {
		writeMessage(w, r, http.StatusConflict, i18n.ErrLevelInUse)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.revalidate("/api/levels")
	w.WriteHeader(http.StatusNoContent)
}

// conflictField turns a unique violation into a field error on field.
func conflictField(err error, field string, r *http.Request) error {
	if errors.Is(err, store.ErrConflict) {
		return validate.Field(field, i18n.T(langFrom(r.Context()), i18n.ErrConflict))
	}
	return err
}

// orEmpty makes nil slices encode as [].
func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
