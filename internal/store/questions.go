package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/pidruchnyk/internal/content"
)

const (
	questionsTable = "questions"
	answersTable   = "answers"
)

var (
	questionColumns = []string{
		"id", "topic_id", "level_id", "text_uk", "text_en", "explanation_uk", "explanation_en",
		"position", "created_at", "updated_at",
	}
	answerColumns = []string{"id", "question_id", "text_uk", "text_en", "correct", "position"}
)

// QuestionRepo reads and writes questions together with their answers.
type QuestionRepo struct {
	c conn
}

func scanQuestion(s scanner) (content.Question, error) {
	var v content.Question
	err := s.Scan(&v.ID, &v.TopicID, &v.LevelID, &v.Text.UK, &v.Text.EN,
		&v.Explanation.UK, &v.Explanation.EN, &v.Position, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func scanAnswer(s scanner) (content.Answer, error) {
	var a content.Answer
	err := s.Scan(&a.ID, &a.QuestionID, &a.Text.UK, &a.Text.EN, &a.Correct, &a.Position)
	return a, err
}

// ListByTopic returns the questions of a topic with answers attached.
func (r *QuestionRepo) ListByTopic(ctx context.Context, topicID string) ([]content.Question, error) {
	sel := r.c.b().Select(questionColumns...).From(r.c.table(questionsTable)).
		Where(entsql.EQ("topic_id", topicID)).
		OrderBy("position", "created_at")
	rows, err := r.c.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	qs, err := collect(rows, scanQuestion)
	if err != nil {
		return nil, fmt.Errorf("scan questions: %w", err)
	}
	if len(qs) == 0 {
		return qs, nil
	}

	ids := make([]any, len(qs))
	for i := range qs {
		ids[i] = qs[i].ID
	}
	answers, err := r.answers(ctx, entsql.In("question_id", ids...))
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[string][]content.Answer, len(qs))
	for _, a := range answers {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}
	for i := range qs {
		qs[i].Answers = byQuestion[qs[i].ID]
	}
	return qs, nil
}

// Get returns a question with its answers.
func (r *QuestionRepo) Get(ctx context.Context, id string) (*content.Question, error) {
	sel := r.c.b().Select(questionColumns...).From(r.c.table(questionsTable)).
		Where(entsql.EQ("id", id))
	v, err := scanQuestion(r.c.queryRow(ctx, sel))
	if err != nil {
		return nil, notFound(err)
	}
	v.Answers, err = r.answers(ctx, entsql.EQ("question_id", id))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *QuestionRepo) answers(ctx context.Context, where *entsql.Predicate) ([]content.Answer, error) {
	sel := r.c.b().Select(answerColumns...).From(r.c.table(answersTable)).
		Where(where).
		OrderBy("question_id", "position")
	rows, err := r.c.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	out, err := collect(rows, scanAnswer)
	if err != nil {
		return nil, fmt.Errorf("scan answers: %w", err)
	}
	return out, nil
}

// BookID returns the id of the book the question belongs to.
func (r *QuestionRepo) BookID(ctx context.Context, questionID string) (string, error) {
	q, t := r.c.table(questionsTable), r.c.table(topicsTable)
	sel := r.c.b().Select(t.C("book_id")).From(q).
		Join(t).On(q.C("topic_id"), t.C("id")).
		Where(entsql.EQ(q.C("id"), questionID))
	var bookID string
	if err := r.c.queryRow(ctx, sel).Scan(&bookID); err != nil {
		return "", notFound(err)
	}
	return bookID, nil
}

// Create inserts v and its answers. Must run inside a transaction when
// answers are present.
func (r *QuestionRepo) Create(ctx context.Context, v *content.Question) error {
	v.ID = newID(v.ID)
	if v.Position == 0 {
		pos, err := r.c.nextPosition(ctx, questionsTable, entsql.EQ("topic_id", v.TopicID))
		if err != nil {
			return err
		}
		v.Position = pos
	}
	v.CreatedAt = now()
	v.UpdatedAt = v.CreatedAt
	ins := r.c.b().Insert(questionsTable).Columns(questionColumns...).
		Values(v.ID, v.TopicID, v.LevelID, v.Text.UK, v.Text.EN, v.Explanation.UK, v.Explanation.EN,
			v.Position, v.CreatedAt, v.UpdatedAt)
	if _, err := r.c.exec(ctx, ins); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	for i := range v.Answers {
		v.Answers[i].QuestionID = v.ID
		v.Answers[i].Position = i + 1
		if err := r.AddAnswer(ctx, &v.Answers[i]); err != nil {
			return err
		}
	}
	return nil
}

// Update overwrites the question fields and replaces its answers.
func (r *QuestionRepo) Update(ctx context.Context, v *content.Question) error {
	v.UpdatedAt = now()
	upd := r.c.b().Update(questionsTable).
		Set("level_id", v.LevelID).
		Set("text_uk", v.Text.UK).
		Set("text_en", v.Text.EN).
		Set("explanation_uk", v.Explanation.UK).
		Set("explanation_en", v.Explanation.EN).
		Set("position", v.Position).
		Set("updated_at", v.UpdatedAt).
		Where(entsql.EQ("id", v.ID))
	if err := r.c.execAffecting(ctx, upd); err != nil {
		return fmt.Errorf("update question %s: %w", v.ID, err)
	}

	del := r.c.b().Delete(answersTable).Where(entsql.EQ("question_id", v.ID))
	if _, err := r.c.exec(ctx, del); err != nil {
		return fmt.Errorf("clear answers of %s: %w", v.ID, err)
	}
	for i := range v.Answers {
		v.Answers[i].ID = ""
		v.Answers[i].QuestionID = v.ID
		v.Answers[i].Position = i + 1
		if err := r.AddAnswer(ctx, &v.Answers[i]); err != nil {
			return err
		}
	}
	return nil
}

// UpdateText overwrites text and explanation without touching answers.
func (r *QuestionRepo) UpdateText(ctx context.Context, v *content.Question) error {
	v.UpdatedAt = now()
	upd := r.c.b().Update(questionsTable).
		Set("text_uk", v.Text.UK).
		Set("text_en", v.Text.EN).
		Set("explanation_uk", v.Explanation.UK).
		Set("explanation_en", v.Explanation.EN).
		Set("updated_at", v.UpdatedAt).
		Where(entsql.EQ("id", v.ID))
	if err := r.c.execAffecting(ctx, upd); err != nil {
		return fmt.Errorf("update question %s: %w", v.ID, err)
	}
	return nil
}

// AddAnswer appends a to its question. A zero position means last.
func (r *QuestionRepo) AddAnswer(ctx context.Context, a *content.Answer) error {
	a.ID = newID(a.ID)
	if a.Position == 0 {
		pos, err := r.c.nextPosition(ctx, answersTable, entsql.EQ("question_id", a.QuestionID))
		if err != nil {
			return err
		}
		a.Position = pos
	}
	ins := r.c.b().Insert(answersTable).Columns(answerColumns...).
		Values(a.ID, a.QuestionID, a.Text.UK, a.Text.EN, a.Correct, a.Position)
	if _, err := r.c.exec(ctx, ins); err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

// UpdateAnswerText overwrites the text of one answer.
func (r *QuestionRepo) UpdateAnswerText(ctx context.Context, a *content.Answer) error {
	upd := r.c.b().Update(answersTable).
		Set("text_uk", a.Text.UK).
		Set("text_en", a.Text.EN).
		Where(entsql.EQ("id", a.ID))
	if err := r.c.execAffecting(ctx, upd); err != nil {
		return fmt.Errorf("update answer %s: %w", a.ID, err)
	}
	return nil
}

// Delete removes a question and its answers.
func (r *QuestionRepo) Delete(ctx context.Context, id string) error {
	del := r.c.b().Delete(questionsTable).Where(entsql.EQ("id", id))
	if err := r.c.execAffecting(ctx, del); err != nil {
		return fmt.Errorf("delete question %s: %w", id, err)
	}
	return nil
}

// Count returns the number of questions.
func (r *QuestionRepo) Count(ctx context.Context) (int, error) {
	return r.c.count(ctx, questionsTable, nil)
}
