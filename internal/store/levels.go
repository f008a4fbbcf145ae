package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/pidruchnyk/internal/content"
)

const levelsTable = "levels"

var levelColumns = []string{"id", "code", "name_uk", "name_en", "position"}

// LevelRepo reads and writes difficulty levels.
type LevelRepo struct {
	c conn
}

func scanLevel(s scanner) (content.Level, error) {
	var l content.Level
	err := s.Scan(&l.ID, &l.Code, &l.Name.UK, &l.Name.EN, &l.Position)
	return l, err
}

// List returns all levels ordered by position.
func (r *LevelRepo) List(ctx context.Context) ([]content.Level, error) {
	sel := r.c.b().Select(levelColumns...).From(r.c.table(levelsTable)).
		OrderBy("position", "code")
	rows, err := r.c.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	levels, err := collect(rows, scanLevel)
	if err != nil {
		return nil, fmt.Errorf("scan levels: %w", err)
	}
	return levels, nil
}

// Get returns the level with the given id.
func (r *LevelRepo) Get(ctx context.Context, id string) (*content.Level, error) {
	return r.getBy(ctx, "id", id)
}

// GetByCode returns the level with the given code.
func (r *LevelRepo) GetByCode(ctx context.Context, code string) (*content.Level, error) {
	return r.getBy(ctx, "code", code)
}

func (r *LevelRepo) getBy(ctx context.Context, column, value string) (*content.Level, error) {
	sel := r.c.b().Select(levelColumns...).From(r.c.table(levelsTable)).
		Where(entsql.EQ(column, value))
	l, err := scanLevel(r.c.queryRow(ctx, sel))
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

// Create inserts l, assigning an id and the next position when unset.
func (r *LevelRepo) Create(ctx context.Context, l *content.Level) error {
	l.ID = newID(l.ID)
	if l.Position == 0 {
		pos, err := r.c.nextPosition(ctx, levelsTable, nil)
		if err != nil {
			return err
		}
		l.Position = pos
	}
	ins := r.c.b().Insert(levelsTable).Columns(levelColumns...).
		Values(l.ID, l.Code, l.Name.UK, l.Name.EN, l.Position)
	if _, err := r.c.exec(ctx, ins); err != nil {
		return fmt.Errorf("insert level: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of l.
func (r *LevelRepo) Update(ctx context.Context, l *content.Level) error {
	upd := r.c.b().Update(levelsTable).
		Set("code", l.Code).
		Set("name_uk", l.Name.UK).
		Set("name_en", l.Name.EN).
		Set("position", l.Position).
		Where(entsql.EQ("id", l.ID))
	if err := r.c.execAffecting(ctx, upd); err != nil {
		return fmt.Errorf("update level %s: %w", l.ID, err)
	}
	return nil
}

// Delete removes a level. Levels still referenced by questions cannot be
// deleted and yield ErrConflict.
func (r *LevelRepo) Delete(ctx context.Context, id string) error {
	del := r.c.b().Delete(levelsTable).Where(entsql.EQ("id", id))
	if err := r.c.execAffecting(ctx, del); err != nil {
		return fmt.Errorf("delete level %s: %w", id, err)
	}
	return nil
}
