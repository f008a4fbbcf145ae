package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/pidruchnyk/internal/content"
)

const subjectsTable = "subjects"

var subjectColumns = []string{
	"id", "slug", "name_uk", "name_en", "description_uk", "description_en",
	"cover_key", "cover_url", "position", "created_at", "updated_at",
}

// SubjectRepo reads and writes subjects.
type SubjectRepo struct {
	c conn
}

func scanSubject(s scanner) (content.Subject, error) {
	var v content.Subject
	err := s.Scan(&v.ID, &v.Slug, &v.Name.UK, &v.Name.EN, &v.Description.UK, &v.Description.EN,
		&v.CoverKey, &v.CoverURL, &v.Position, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// List returns all subjects ordered by position.
func (r *SubjectRepo) List(ctx context.Context) ([]content.Subject, error) {
	sel := r.c.b().Select(subjectColumns...).From(r.c.table(subjectsTable)).
		OrderBy("position", "created_at")
	rows, err := r.c.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	out, err := collect(rows, scanSubject)
	if err != nil {
		return nil, fmt.Errorf("scan subjects: %w", err)
	}
	return out, nil
}

// Get returns the subject with the given id.
func (r *SubjectRepo) Get(ctx context.Context, id string) (*content.Subject, error) {
	return r.getBy(ctx, "id", id)
}

// GetBySlug returns the subject with the given slug.
func (r *SubjectRepo) GetBySlug(ctx context.Context, slug string) (*content.Subject, error) {
	return r.getBy(ctx, "slug", slug)
}

func (r *SubjectRepo) getBy(ctx context.Context, column, value string) (*content.Subject, error) {
	sel := r.c.b().Select(subjectColumns...).From(r.c.table(subjectsTable)).
		Where(entsql.EQ(column, value))
	v, err := scanSubject(r.c.queryRow(ctx, sel))
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// Create inserts v. A duplicate slug yields ErrConflict.
func (r *SubjectRepo) Create(ctx context.Context, v *content.Subject) error {
	v.ID = newID(v.ID)
	if v.Position == 0 {
		pos, err := r.c.nextPosition(ctx, subjectsTable, nil)
		if err != nil {
			return err
		}
		v.Position = pos
	}
	v.CreatedAt = now()
	v.UpdatedAt = v.CreatedAt
	ins := r.c.b().Insert(subjectsTable).Columns(subjectColumns...).
		Values(v.ID, v.Slug, v.Name.UK, v.Name.EN, v.Description.UK, v.Description.EN,
			v.CoverKey, v.CoverURL, v.Position, v.CreatedAt, v.UpdatedAt)
	if _, err := r.c.exec(ctx, ins); err != nil {
		return fmt.Errorf("insert subject: %w", err)
	}
	return nil
}

// Update overwrites slug, names, description and position of v.
func (r *SubjectRepo) Update(ctx context.Context, v *content.Subject) error {
	v.UpdatedAt = now()
	upd := r.c.b().Update(subjectsTable).
		Set("slug", v.Slug).
		Set("name_uk", v.Name.UK).
		Set("name_en", v.Name.EN).
		Set("description_uk", v.Description.UK).
		Set("description_en", v.Description.EN).
		Set("position", v.Position).
		Set("updated_at", v.UpdatedAt).
		Where(entsql.EQ("id", v.ID))
	if err := r.c.execAffecting(ctx, upd); err != nil {
		return fmt.Errorf("update subject %s: %w", v.ID, err)
	}
	return nil
}

// SetCover records a new cover object for the subject.
func (r *SubjectRepo) SetCover(ctx context.Context, id, key, url string) error {
	upd := r.c.b().Update(subjectsTable).
		Set("cover_key", key).
		Set("cover_url", url).
		Set("updated_at", now()).
		Where(entsql.EQ("id", id))
	if err := r.c.execAffecting(ctx, upd); err != nil {
		return fmt.Errorf("set subject cover %s: %w", id, err)
	}
	return nil
}

// Delete removes a subject together with its books, topics and questions.
func (r *SubjectRepo) Delete(ctx context.Context, id string) error {
	del := r.c.b().Delete(subjectsTable).Where(entsql.EQ("id", id))
	if err := r.c.execAffecting(ctx, del); err != nil {
		return fmt.Errorf("delete subject %s: %w", id, err)
	}
	return nil
}

// Count returns the number of subjects.
func (r *SubjectRepo) Count(ctx context.Context) (int, error) {
	return r.c.count(ctx, subjectsTable, nil)
}
