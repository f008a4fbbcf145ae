package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/pidruchnyk/internal/content"
)

const topicsTable = "topics"

var topicColumns = []string{
	"id", "book_id", "name_uk", "name_en", "theory_uk", "theory_en",
	"position", "created_at", "updated_at",
}

// TopicRepo reads and writes topics.
type TopicRepo struct {
	c conn
}

func scanTopic(s scanner) (content.Topic, error) {
	var v content.Topic
	err := s.Scan(&v.ID, &v.BookID, &v.Name.UK, &v.Name.EN, &v.Theory.UK, &v.Theory.EN,
		&v.Position, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// ListByBook returns the topics of a book ordered by position.
func (r *TopicRepo) ListByBook(ctx context.Context, bookID string) ([]content.Topic, error) {
	sel := r.c.b().Select(topicColumns...).From(r.c.table(topicsTable)).
		Where(entsql.EQ("book_id", bookID)).
		OrderBy("position", "created_at")
	rows, err := r.c.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	out, err := collect(rows, scanTopic)
	if err != nil {
		return nil, fmt.Errorf("scan topics: %w", err)
	}
	return out, nil
}

// Get returns the topic with the given id.
func (r *TopicRepo) Get(ctx context.Context, id string) (*content.Topic, error) {
	sel := r.c.b().Select(topicColumns...).From(r.c.table(topicsTable)).
		Where(entsql.EQ("id", id))
	v, err := scanTopic(r.c.queryRow(ctx, sel))
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// Create appends v to its book. A second topic with the same Ukrainian
// name in one book yields ErrConflict.
func (r *TopicRepo) Create(ctx context.Context, v *content.Topic) error {
	v.ID = newID(v.ID)
	if v.Position == 0 {
		pos, err := r.c.nextPosition(ctx, topicsTable, entsql.EQ("book_id", v.BookID))
		if err != nil {
			return err
		}
		v.Position = pos
	}
	v.CreatedAt = now()
	v.UpdatedAt = v.CreatedAt
	ins := r.c.b().Insert(topicsTable).Columns(topicColumns...).
		Values(v.ID, v.BookID, v.Name.UK, v.Name.EN, v.Theory.UK, v.Theory.EN,
			v.Position, v.CreatedAt, v.UpdatedAt)
	if _, err := r.c.exec(ctx, ins); err != nil {
		return fmt.Errorf("insert topic: %w", err)
	}
	return nil
}

// Update overwrites names, theory and position of v.
func (r *TopicRepo) Update(ctx context.Context, v *content.Topic) error {
	v.UpdatedAt = now()
	upd := r.c.b().Update(topicsTable).
		Set("name_uk", v.Name.UK).
		Set("name_en", v.Name.EN).
		Set("theory_uk", v.Theory.UK).
		Set("theory_en", v.Theory.EN).
		Set("position", v.Position).
		Set("updated_at", v.UpdatedAt).
		Where(entsql.EQ("id", v.ID))
	if err := r.c.execAffecting(ctx, upd); err != nil {
		return fmt.Errorf("update topic %s: %w", v.ID, err)
	}
	return nil
}

// Delete removes a topic and its questions.
func (r *TopicRepo) Delete(ctx context.Context, id string) error {
	del := r.c.b().Delete(topicsTable).Where(entsql.EQ("id", id))
	if err := r.c.execAffecting(ctx, del); err != nil {
		return fmt.Errorf("delete topic %s: %w", id, err)
	}
	return nil
}

// Count returns the number of topics.
func (r *TopicRepo) Count(ctx context.Context) (int, error) {
	return r.c.count(ctx, topicsTable, nil)
}
