package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"advocacia.app/internal/auth"
	"advocacia.app/internal/ids"
)

var _ auth.UserStore = (*Store)(nil)

// UserByUsername implements auth.UserStore.
func (s *Store) UserByUsername(ctx context.Context, username string) (auth.User, error) {
	var u auth.User
	err := s.db.QueryRowContext(ctx, s.q(`SELECT id, username, password, email, role FROM users WHERE username = ?`), username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, auth.ErrNotFound
	}
	return u, err
}

// UpdatePasswordHash implements auth.UserStore.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE users SET password = ? WHERE id = ?`), hash, userID)
	if err != nil {
		return err
	}
	if err := expectOneRow(res); err != nil {
		return auth.ErrNotFound
	}
	return nil
}

// EnsureAdmin creates the admin account if the username is free. An existing
// account is left untouched. It reports whether a row was inserted.
func (s *Store) EnsureAdmin(ctx context.Context, username, password, email string) (bool, error) {
	if username == "" || password == "" {
		return false, errors.New("store: admin username and password are required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	var emailArg *string
	if email != "" {
		emailArg = &email
	}
	res, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO users (id, username, password, email, role, created_at)
		VALUES (?, ?, ?, ?, 'admin', ?)
		ON CONFLICT (username) DO NOTHING`),
		ids.New(), username, hash, emailArg, s.timestamp())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
