package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/abhisek/pidruchnyk/internal/auth"
	"github.com/abhisek/pidruchnyk/internal/i18n"
	"github.com/abhisek/pidruchnyk/internal/llm"
	"github.com/abhisek/pidruchnyk/internal/media"
	"github.com/abhisek/pidruchnyk/internal/progress"
	"github.com/abhisek/pidruchnyk/internal/store"
	"github.com/abhisek/pidruchnyk/internal/suggest"
	"github.com/abhisek/pidruchnyk/internal/validate"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeError maps err to a status and a localized message. Unexpected
// errors are logged and reported generically.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	lang := langFrom(r.Context())
	status, key, args := http.StatusInternalServerError, i18n.ErrInternal, []any(nil)
	var fields map[string]string

	var (
		verr     *validate.Error
		serr     *suggest.SuggestionError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		status, key, fields = http.StatusUnprocessableEntity, i18n.ErrValidation, verr.Fields
	case errors.As(err, &serr):
		status, key = http.StatusUnprocessableEntity, i18n.ErrValidation
		fields = map[string]string{
			fmt.Sprintf("suggestions.%d.%s", serr.Index, serr.Field): suggestionMessage(lang, serr.Err),
		}
	case errors.Is(err, suggest.ErrUnknownLevel):
		status, key = http.StatusUnprocessableEntity, i18n.ErrValidation
		fields = map[string]string{"level": i18n.T(lang, i18n.FieldUnknownLevel)}
	case errors.Is(err, auth.ErrEmailTaken):
		status, key = http.StatusConflict, i18n.AuthEmailTaken
		fields = map[string]string{"email": i18n.T(lang, i18n.AuthEmailTaken)}
	case errors.Is(err, auth.ErrWeakPassword):
		status, key = http.StatusUnprocessableEntity, i18n.ErrValidation
		fields = map[string]string{"password": i18n.T(lang, i18n.FieldMinLength, auth.MinPasswordLength)}
	case errors.Is(err, validate.ErrMalformed):
		status, key = http.StatusBadRequest, i18n.ErrBadRequest
	case errors.As(err, &tooLarge), errors.Is(err, media.ErrTooLarge):
		status, key, args = http.StatusRequestEntityTooLarge, i18n.ErrTooLarge, []any{media.MaxCoverSize >> 20}
	case errors.Is(err, media.ErrUnsupportedType):
		status, key = http.StatusUnsupportedMediaType, i18n.ErrUnsupportedMedia
	case errors.Is(err, errUnauthorized):
		status, key = http.StatusUnauthorized, i18n.ErrUnauthorized
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, key = http.StatusUnauthorized, i18n.AuthInvalidCredentials
	case errors.Is(err, errForbidden):
		status, key = http.StatusForbidden, i18n.ErrForbidden
	case errors.Is(err, store.ErrNotFound):
		status, key = http.StatusNotFound, i18n.ErrNotFound
	case errors.Is(err, progress.ErrNotLearning):
		status, key = http.StatusConflict, i18n.ErrNotLearning
	case errors.Is(err, store.ErrConflict):
		status, key = http.StatusConflict, i18n.ErrConflict
	case errors.Is(err, suggest.ErrNoProvider), errors.Is(err, llm.ErrNotConfigured):
		status, key = http.StatusServiceUnavailable, i18n.ErrLLMUnavailable
	case llm.IsUpstream(err):
		status, key = http.StatusBadGateway, i18n.ErrLLMFailed
		s.Logger.Error("llm request failed", "path", r.URL.Path, "error", err)
	default:
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, errorBody{
		Error:   http.StatusText(status),
		Message: i18n.T(lang, key, args...),
		Fields:  fields,
	})
}

func suggestionMessage(lang string, err error) string {
	switch {
	case errors.Is(err, suggest.ErrUnknownLevel):
		return i18n.T(lang, i18n.FieldUnknownLevel)
	case errors.Is(err, suggest.ErrNoCorrectAnswer):
		return i18n.T(lang, i18n.FieldNoCorrect)
	case errors.Is(err, suggest.ErrTooFewAnswers):
		return i18n.T(lang, i18n.FieldMinItems, 2)
	case errors.Is(err, suggest.ErrEmptyText):
		return i18n.T(lang, i18n.FieldRequired)
	}
	return i18n.T(lang, i18n.FieldInvalid)
}

// decode validates the JSON body against schema and decodes it into v.
// On failure the error response is written and false returned.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema *validate.Schema, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := schema.Decode(body, langFrom(r.Context()), v); err != nil {
		s.writeError(w, r, err)
		return false
	}
	return true
}

// writeMessage writes an error body for a known condition.
func writeMessage(w http.ResponseWriter, r *http.Request, status int, key string) {
	writeJSON(w, status, errorBody{
		Error:   http.StatusText(status),
		Message: i18n.T(langFrom(r.Context()), key),
	})
}
