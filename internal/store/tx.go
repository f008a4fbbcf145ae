package store

import (
	"context"
	"fmt"
)

// Queries hands out repositories bound to one connection, either the
// pool or a transaction.
type Queries struct {
	c conn
}

func (q *Queries) Levels() *LevelRepo       { return &LevelRepo{c: q.c} }
func (q *Queries) Subjects() *SubjectRepo   { return &SubjectRepo{c: q.c} }
func (q *Queries) Books() *BookRepo         { return &BookRepo{c: q.c} }
func (q *Queries) Topics() *TopicRepo       { return &TopicRepo{c: q.c} }
func (q *Queries) Questions() *QuestionRepo { return &QuestionRepo{c: q.c} }
func (q *Queries) Users() *UserRepo         { return &UserRepo{c: q.c} }
func (q *Queries) Progress() *ProgressRepo  { return &ProgressRepo{c: q.c} }
func (q *Queries) Events() EventRepo        { return &eventRepo{c: q.c} }

// Tx is a set of repositories that run inside a single transaction.
type Tx struct {
	*Queries
}

// WithTx runs fn in a transaction. The transaction commits when fn returns
// nil and rolls back otherwise. With SQLite the pool holds a single
// connection, so fn must only use the repositories on tx.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	tx := &Tx{Queries: &Queries{c: conn{q: sqlTx, dialect: s.c.dialect}}}
	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
