package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"finmind/internal/auth"
)

// CreateUser inserts a profile row. A duplicate email maps to
// auth.ErrEmailTaken.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u auth.User, hash []byte) error {
	ts := u.CreatedAt.UTC().Format(timeLayout)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, full_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.FullName, hash, ts, ts)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return auth.ErrEmailTaken
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (auth.User, []byte, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, created_at, password_hash FROM profiles WHERE email = ?`, email)
	var hash []byte
	u, err := scanUser(row, &hash)
	if err != nil {
		return auth.User{}, nil, err
	}
	return u, hash, nil
}

func (r *SQLiteRepository) UserByID(ctx context.Context, id string) (auth.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, created_at FROM profiles WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(s scanner, extra ...any) (auth.User, error) {
	var (
		u  auth.User
		ts string
	)
	dest := append([]any{&u.ID, &u.Email, &u.FullName, &ts}, extra...)
	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.User{}, auth.ErrUserNotFound
		}
		return auth.User{}, fmt.Errorf("scan profile: %w", err)
	}
	var err error
	if u.CreatedAt, err = time.Parse(timeLayout, ts); err != nil {
		return auth.User{}, fmt.Errorf("profile %s created_at: %w", u.ID, err)
	}
	return u, nil
}
