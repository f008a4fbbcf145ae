package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/pidruchnyk/internal/content"
	"github.com/abhisek/pidruchnyk/internal/store"
	"github.com/abhisek/pidruchnyk/internal/validate"
)

type subjectPayload struct {
	Slug        string       `json:"slug"`
	Name        content.Text `json:"name"`
	Description content.Text `json:"description"`
	Position    *int         `json:"position"`
}

type bookPayload struct {
	Name        content.Text `json:"name"`
	Description content.Text `json:"description"`
	Author      string       `json:"author"`
	Position    *int         `json:"position"`
}

// subject resolves the {id} parameter, which may also be a slug.
func (s *Server) subject(ctx context.Context, idOrSlug string) (*content.Subject, error) {
	subj, err := s.Store.Subjects().Get(ctx, idOrSlug)
	if errors.Is(err, store.ErrNotFound) {
		return s.Store.Subjects().GetBySlug(ctx, idOrSlug)
	}
	return subj, err
}

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.Store.Subjects().List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(list))
}

func (s *Server) handleGetSubject(w http.ResponseWriter, r *http.Request) {
	subj, err := s.subject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subj)
}

func (s *Server) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var req subjectPayload
	if !s.decode(w, r, validate.Subject, &req) {
		return
	}
	subj := &content.Subject{Slug: req.Slug, Name: req.Name.Trimmed(), Description: req.Description.Trimmed()}
	if req.Position != nil {
		subj.Position = *req.Position
	}
	if err := s.Store.Subjects().Create(r.Context(), subj); err != nil {
		s.writeError(w, r, conflictField(err, "slug", r))
		return
	}
	s.revalidate("/api/subjects")
	writeJSON(w, http.StatusCreated, subj)
}

func (s *Server) handleUpdateSubject(w http.ResponseWriter, r *http.Request) {
	var req subjectPayload
	if !s.decode(w, r, validate.Subject, &req) {
		return
	}
	subj, err := s.Store.Subjects().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	subj.Slug, subj.Name, subj.Description = req.Slug, req.Name.Trimmed(), req.Description.Trimmed()
	if req.Position != nil {
		subj.Position = *req.Position
	}
	if err := s.Store.Subjects().Update(r.Context(), subj); err != nil {
		s.writeError(w, r, conflictField(err, "slug", r))
		return
	}
	s.revalidate("/api/subjects")
	writeJSON(w, http.StatusOK, subj)
}

func (s *Server) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subj, err := s.Store.Subjects().Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	books, err := s.Store.Books().ListBySubject(ctx, subj.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Store.Subjects().Delete(ctx, subj.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.deleteObject(ctx, subj.CoverKey)
	for _, b := range books {
		s.deleteObject(ctx, b.CoverKey)
	}
	s.revalidate("/api/subjects", "/api/books/", "/api/topics/", "/api/questions/")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	subj, err := s.subject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	books, err := s.Store.Books().ListBySubject(r.Context(), subj.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(books))
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req bookPayload
	if !s.decode(w, r, validate.Book, &req) {
		return
	}
	subj, err := s.Store.Subjects().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b := &content.Book{
		SubjectID:   subj.ID,
		Name:        req.Name.Trimmed(),
		Description: req.Description.Trimmed(),
		Author:      req.Author,
	}
	if req.Position != nil {
		b.Position = *req.Position
	}
	if err := s.Store.Books().Create(r.Context(), b); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.revalidate("/api/subjects/"+subj.ID+"/books", "/api/subjects/"+subj.Slug+"/books")
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	b, err := s.Store.Books().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	var req bookPayload
	if !s.decode(w, r, validate.Book, &req) {
		return
	}
	b, err := s.Store.Books().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b.Name, b.Description, b.Author = req.Name.Trimmed(), req.Description.Trimmed(), req.Author
	if req.Position != nil {
		b.Position = *req.Position
	}
	if err := s.Store.Books().Update(r.Context(), b); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.revalidateBook(r.Context(), b)
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b, err := s.Store.Books().Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Progress.DeleteBook(ctx, b.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.deleteObject(ctx, b.CoverKey)
	s.revalidateBook(ctx, b)
	s.revalidate("/api/topics/", "/api/questions/")
	w.WriteHeader(http.StatusNoContent)
}

// revalidateBook drops the book and the book lists of its subject.
func (s *Server) revalidateBook(ctx context.Context, b *content.Book) {
	prefixes := []string{"/api/books/" + b.ID, "/api/subjects/" + b.SubjectID + "/books"}
	if subj, err := s.Store.Subjects().Get(ctx, b.SubjectID); err == nil {
		prefixes = append(prefixes, "/api/subjects/"+subj.Slug+"/books")
	}
	s.revalidate(prefixes...)
}
