// ABOUTME: User store operations.
// ABOUTME: Users carry a role that maps to a capability set.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/2389/cpt/internal/content"
)

// CreateUser inserts a user. An empty display name defaults to the login.
func (s *Store) CreateUser(ctx context.Context, login, displayName, role string) (*content.User, error) {
	if displayName == "" {
		displayName = login
	}
	if role == "" {
		role = "subscriber"
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (login, display_name, role) VALUES (?, ?, ?)", login, displayName, role)
	if err != nil {
		return nil, fmt.Errorf("insert user %q: %w", login, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &content.User{ID: id, Login: login, DisplayName: displayName, Role: role}, nil
}

// UserByLogin returns the user with login.
func (s *Store) UserByLogin(ctx context.Context, login string) (*content.User, error) {
	var u content.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, login, display_name, role FROM users WHERE login = ?", login).
		Scan(&u.ID, &u.Login, &u.DisplayName, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", login, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserName returns the display name of user id.
func (s *Store) UserName(ctx context.Context, id int64) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, "SELECT display_name FROM users WHERE id = ?", id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return name, err
}
