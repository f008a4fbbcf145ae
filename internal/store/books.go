package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/pidruchnyk/internal/content"
)

const booksTable = "books"

var bookColumns = []string{
	"id", "subject_id", "name_uk", "name_en", "description_uk", "description_en",
	"author", "cover_key", "cover_url", "position", "created_at", "updated_at",
}

// BookRepo reads and writes books.
type BookRepo struct {
	c conn
}

func scanBook(s scanner) (content.Book, error) {
	var v content.Book
	err := s.Scan(&v.ID, &v.SubjectID, &v.Name.UK, &v.Name.EN, &v.Description.UK, &v.Description.EN,
		&v.Author, &v.CoverKey, &v.CoverURL, &v.Position, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (r *BookRepo) list(ctx context.Context, where *entsql.Predicate) ([]content.Book, error) {
	sel := r.c.b().Select(bookColumns...).From(r.c.table(booksTable))
	if where != nil {
		sel.Where(where)
	}
	sel.OrderBy("position", "created_at")
	rows, err := r.c.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	out, err := collect(rows, scanBook)
	if err != nil {
		return nil, fmt.Errorf("scan books: %w", err)
	}
	return out, nil
}

// List returns every book.
func (r *BookRepo) List(ctx context.Context) ([]content.Book, error) {
	return r.list(ctx, nil)
}

// ListBySubject returns the books of a subject ordered by position.
func (r *BookRepo) ListBySubject(ctx context.Context, subjectID string) ([]content.Book, error) {
	return r.list(ctx, entsql.EQ("subject_id", subjectID))
}

// ListByIDs returns the books with the given ids.
func (r *BookRepo) ListByIDs(ctx context.Context, ids []string) ([]content.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.list(ctx, entsql.In("id", args...))
}

// Get returns the book with the given id.
func (r *BookRepo) Get(ctx context.Context, id string) (*content.Book, error) {
	sel := r.c.b().Select(bookColumns...).From(r.c.table(booksTable)).
		Where(entsql.EQ("id", id))
	v, err := scanBook(r.c.queryRow(ctx, sel))
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// Create inserts v at the end of its subject. A missing subject yields
// ErrConflict.
func (r *BookRepo) Create(ctx context.Context, v *content.Book) error {
	v.ID = newID(v.ID)
	if v.Position == 0 {
		pos, err := r.c.nextPosition(ctx, booksTable, entsql.EQ("subject_id", v.SubjectID))
		if err != nil {
			return err
		}
		v.Position = pos
	}
	v.CreatedAt = now()
	v.UpdatedAt = v.CreatedAt
	ins := r.c.b().Insert(booksTable).Columns(bookColumns...).
		Values(v.ID, v.SubjectID, v.Name.UK, v.Name.EN, v.Description.UK, v.Description.EN,
			v.Author, v.CoverKey, v.CoverURL, v.Position, v.CreatedAt, v.UpdatedAt)
	if _, err := r.c.exec(ctx, ins); err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// Update overwrites names, description, author and position of v.
func (r *BookRepo) Update(ctx context.Context, v *content.Book) error {
	v.UpdatedAt = now()
	upd := r.c.b().Update(booksTable).
		Set("name_uk", v.Name.UK).
		Set("name_en", v.Name.EN).
		Set("description_uk", v.Description.UK).
		Set("description_en", v.Description.EN).
		Set("author", v.Author).
		Set("position", v.Position).
		Set("updated_at", v.UpdatedAt).
		Where(entsql.EQ("id", v.ID))
	if err := r.c.execAffecting(ctx, upd); err != nil {
		return fmt.Errorf("update book %s: %w", v.ID, err)
	}
	return nil
}

// SetCover records a new cover object for the book.
func (r *BookRepo) SetCover(ctx context.Context, id, key, url string) error {
	upd := r.c.b().Update(booksTable).
		Set("cover_key", key).
		Set("cover_url", url).
		Set("updated_at", now()).
		Where(entsql.EQ("id", id))
	if err := r.c.execAffecting(ctx, upd); err != nil {
		return fmt.Errorf("set book cover %s: %w", id, err)
	}
	return nil
}

// Delete removes a book together with its topics and questions.
func (r *BookRepo) Delete(ctx context.Context, id string) error {
	del := r.c.b().Delete(booksTable).Where(entsql.EQ("id", id))
	if err := r.c.execAffecting(ctx, del); err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}
	return nil
}

// Count returns the number of books.
func (r *BookRepo) Count(ctx context.Context) (int, error) {
	return r.c.count(ctx, booksTable, nil)
}
