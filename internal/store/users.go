package store

import (
	"context"
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/pidruchnyk/internal/content"
)

const usersTable = "users"

var userColumns = []string{"id", "email", "display_name", "role", "password_hash", "created_at"}

// UserRepo reads and writes accounts. Emails are stored lower-cased.
type UserRepo struct {
	c conn
}

func scanUser(s scanner) (content.User, error) {
	var u content.User
	err := s.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// Create inserts u. A duplicate email yields ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *content.User) error {
	u.ID = newID(u.ID)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = content.RoleUser
	}
	u.CreatedAt = now()
	ins := r.c.b().Insert(usersTable).Columns(userColumns...).
		Values(u.ID, u.Email, u.DisplayName, u.Role, u.PasswordHash, u.CreatedAt)
	if _, err := r.c.exec(ctx, ins); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Get returns the user with the given id.
func (r *UserRepo) Get(ctx context.Context, id string) (*content.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail looks a user up by email, ignoring case.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*content.User, error) {
	return r.getBy(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepo) getBy(ctx context.Context, column, value string) (*content.User, error) {
	sel := r.c.b().Select(userColumns...).From(r.c.table(usersTable)).
		Where(entsql.EQ(column, value))
	u, err := scanUser(r.c.queryRow(ctx, sel))
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// SetRole changes the role of a user.
func (r *UserRepo) SetRole(ctx context.Context, id, role string) error {
	upd := r.c.b().Update(usersTable).Set("role", role).Where(entsql.EQ("id", id))
	if err := r.c.execAffecting(ctx, upd); err != nil {
		return fmt.Errorf("set role of %s: %w", id, err)
	}
	return nil
}

// Count returns the number of users.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	return r.c.count(ctx, usersTable, nil)
}
