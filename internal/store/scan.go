package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// collect scans every row with fn and closes rows.
func collect[T any](rows *sql.Rows, fn func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := fn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// now is stubbed in tests that need deterministic timestamps.
var now = func() time.Time {
	return time.Now().UTC()
}
