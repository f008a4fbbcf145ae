package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/pidruchnyk/internal/i18n"
	"github.com/abhisek/pidruchnyk/internal/media"
	"github.com/abhisek/pidruchnyk/internal/validate"
)

const coverField = "cover"

type coverView struct {
	CoverURL string `json:"cover_url"`
}

// readCover pulls the "cover" part from a multipart upload and sniffs it.
func (s *Server) readCover(w http.ResponseWriter, r *http.Request) (*media.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCoverBody)
	f, _, err := r.FormFile(coverField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, validate.Field(coverField, i18n.T(langFrom(r.Context()), i18n.FieldRequired))
	}
	defer f.Close()
	return media.ReadCover(f)
}

// replaceCover stores u, records it with set and removes the previous
// object. The new object is removed again when set fails.
func (s *Server) replaceCover(ctx context.Context, kind, id, oldKey string, u *media.Upload, set func(key, url string) error) (string, error) {
	if s.Media == nil {
		return "", errors.New("media storage not configured")
	}
	key, url, err := media.PutCover(ctx, s.Media, kind, id, u)
	if err != nil {
		return "", err
	}
	if err := set(key, url); err != nil {
		s.deleteObject(ctx, key)
		return "", err
	}
	s.deleteObject(ctx, oldKey)
	return url, nil
}

// deleteObject removes a stored object, logging failures.
func (s *Server) deleteObject(ctx context.Context, key string) {
	if key == "" || s.Media == nil {
		return
	}
	if err := s.Media.Delete(ctx, key); err != nil {
		s.Logger.Warn("delete media object", "key", key, "error", err)
	}
}

func (s *Server) handleSubjectCover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subj, err := s.Store.Subjects().Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.readCover(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	url, err := s.replaceCover(ctx, "subjects", subj.ID, subj.CoverKey, u, func(key, url string) error {
		return s.Store.Subjects().SetCover(ctx, subj.ID, key, url)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.revalidate("/api/subjects")
	writeJSON(w, http.StatusOK, coverView{CoverURL: url})
}

func (s *Server) handleBookCover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b, err := s.Store.Books().Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.readCover(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	url, err := s.replaceCover(ctx, "books", b.ID, b.CoverKey, u, func(key, url string) error {
		return s.Store.Books().SetCover(ctx, b.ID, key, url)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.revalidateBook(ctx, b)
	writeJSON(w, http.StatusOK, coverView{CoverURL: url})
}
