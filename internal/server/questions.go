package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/pidruchnyk/internal/content"
	"github.com/abhisek/pidruchnyk/internal/i18n"
	"github.com/abhisek/pidruchnyk/internal/progress"
	"github.com/abhisek/pidruchnyk/internal/store"
	"github.com/abhisek/pidruchnyk/internal/validate"
)

type answerPayload struct {
	Text    content.Text `json:"text"`
	Correct bool         `json:"correct"`
}

type questionPayload struct {
	LevelID     string          `json:"level_id"`
	Text        content.Text    `json:"text"`
	Explanation content.Text    `json:"explanation"`
	Position    *int            `json:"position"`
	Answers     []answerPayload `json:"answers"`
}

// publicQuestion is what learners see: no answer key, no explanation.
type publicQuestion struct {
	ID       string         `json:"id"`
	TopicID  string         `json:"topic_id"`
	LevelID  string         `json:"level_id"`
	Text     content.Text   `json:"text"`
	Position int            `json:"position"`
	Answers  []publicAnswer `json:"answers"`
}

type publicAnswer struct {
	ID       string       `json:"id"`
	Text     content.Text `json:"text"`
	Position int          `json:"position"`
}

func toPublic(q content.Question) publicQuestion {
	p := publicQuestion{
		ID:       q.ID,
		TopicID:  q.TopicID,
		LevelID:  q.LevelID,
		Text:     q.Text,
		Position: q.Position,
		Answers:  make([]publicAnswer, len(q.Answers)),
	}
	for i, a := range q.Answers {
		p.Answers[i] = publicAnswer{ID: a.ID, Text: a.Text, Position: a.Position}
	}
	return p
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	t, err := s.Store.Topics().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.Store.Questions().ListByTopic(r.Context(), t.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if userFrom(r.Context()).IsAdmin() {
		writeJSON(w, http.StatusOK, orEmpty(list))
		return
	}
	out := make([]publicQuestion, len(list))
	for i, q := range list {
		out[i] = toPublic(q)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := s.Store.Questions().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if userFrom(r.Context()).IsAdmin() {
		writeJSON(w, http.StatusOK, q)
		return
	}
	writeJSON(w, http.StatusOK, toPublic(*q))
}

// checkQuestion enforces what the JSON schema cannot: a correct answer and
// a known level.
func (s *Server) checkQuestion(ctx context.Context, req *questionPayload) error {
	lang := langFrom(ctx)
	verr := &validate.Error{}
	correct := false
	for _, a := range req.Answers {
		correct = correct || a.Correct
	}
	if !correct {
		verr.Add("answers", i18n.T(lang, i18n.FieldNoCorrect))
	}
	if _, err := s.Store.Levels().Get(ctx, req.LevelID); errors.Is(err, store.ErrNotFound) {
		verr.Add("level_id", i18n.T(lang, i18n.FieldUnknownLevel))
	} else if err != nil {
		return err
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (req *questionPayload) apply(q *content.Question) {
	q.LevelID = req.LevelID
	q.Text = req.Text.Trimmed()
	q.Explanation = req.Explanation.Trimmed()
	if req.Position != nil {
		q.Position = *req.Position
	}
	q.Answers = make([]content.Answer, len(req.Answers))
	for i, a := range req.Answers {
		q.Answers[i] = content.Answer{Text: a.Text.Trimmed(), Correct: a.Correct, Position: i}
	}
}

func (s *Server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req questionPayload
	if !s.decode(w, r, validate.Question, &req) {
		return
	}
	t, err := s.Store.Topics().Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.checkQuestion(ctx, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	q := &content.Question{TopicID: t.ID}
	req.apply(q)
	err = s.Store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.Questions().Create(ctx, q); err != nil {
			return err
		}
		return progress.RefreshBook(ctx, tx, t.BookID)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.revalidate("/api/topics/" + t.ID + "/questions")
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req questionPayload
	if !s.decode(w, r, validate.Question, &req) {
		return
	}
	q, err := s.Store.Questions().Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.checkQuestion(ctx, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.apply(q)
	err = s.Store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.Questions().Update(ctx, q); err != nil {
			return err
		}
		return refreshQuestionBook(ctx, tx, q.ID)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.revalidate("/api/questions/"+q.ID, "/api/topics/"+q.TopicID+"/questions")
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := s.Store.Questions().Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	err = s.Store.WithTx(ctx, func(tx *store.Tx) error {
		bookID, err := tx.Questions().BookID(ctx, q.ID)
		if err != nil {
			return err
		}
		if err := tx.Questions().Delete(ctx, q.ID); err != nil {
			return err
		}
		return progress.RefreshBook(ctx, tx, bookID)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.revalidate("/api/questions/"+q.ID, "/api/topics/"+q.TopicID+"/questions")
	w.WriteHeader(http.StatusNoContent)
}

func refreshQuestionBook(ctx context.Context, tx *store.Tx, questionID string) error {
	bookID, err := tx.Questions().BookID(ctx, questionID)
	if err != nil {
		return err
	}
	return progress.RefreshBook(ctx, tx, bookID)
}
