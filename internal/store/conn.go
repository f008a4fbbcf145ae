package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a unique or
	// foreign-key constraint.
	ErrConflict = errors.New("conflict")
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn pairs a querier with the SQL dialect used to build statements.
type conn struct {
	q       querier
	dialect string
}

func (c conn) b() *entsql.DialectBuilder {
	return entsql.Dialect(c.dialect)
}

func (c conn) table(name string) *entsql.SelectTable {
	return c.b().Table(name)
}

func (c conn) exec(ctx context.Context, stmt entsql.Querier) (sql.Result, error) {
	query, args := stmt.Query()
	res, err := c.q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return res, nil
}

// execAffecting runs stmt and returns ErrNotFound when no row changed.
func (c conn) execAffecting(ctx context.Context, stmt entsql.Querier) error {
	res, err := c.exec(ctx, stmt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c conn) query(ctx context.Context, sel *entsql.Selector) (*sql.Rows, error) {
	query, args := sel.Query()
	return c.q.QueryContext(ctx, query, args...)
}

func (c conn) queryRow(ctx context.Context, sel *entsql.Selector) *sql.Row {
	query, args := sel.Query()
	return c.q.QueryRowContext(ctx, query, args...)
}

// count runs a COUNT(*) over table filtered by where.
func (c conn) count(ctx context.Context, table string, where *entsql.Predicate) (int, error) {
	sel := c.b().Select("COUNT(*)").From(c.table(table))
	if where != nil {
		sel.Where(where)
	}
	var n int
	if err := c.queryRow(ctx, sel).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// nextPosition returns max(position)+1 among rows matching where.
func (c conn) nextPosition(ctx context.Context, table string, where *entsql.Predicate) (int, error) {
	sel := c.b().Select("COALESCE(MAX(position), 0)").From(c.table(table))
	if where != nil {
		sel.Where(where)
	}
	var max int
	if err := c.queryRow(ctx, sel).Scan(&max); err != nil {
		return 0, fmt.Errorf("next position in %s: %w", table, err)
	}
	return max + 1, nil
}

// mapError translates driver constraint errors into store sentinels.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case sqlgraph.IsUniqueConstraintError(err), sqlgraph.IsForeignKeyConstraintError(err):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}

// notFound converts sql.ErrNoRows into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
