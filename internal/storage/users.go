package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"spence/internal/core"
)

// CreateUser inserts an account record. A duplicate email maps to
// core.ErrEmailTaken.
func (r *SQLiteRepository) CreateUser(ctx context.Context, email, passwordHash string) (core.User, error) {
	var user core.User
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash) VALUES (?, ?)
		 RETURNING id, email, password_hash, created_at`,
		email, passwordHash,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if isUniqueViolation(err, "users.email") {
		return core.User{}, core.ErrEmailTaken
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", user.ID, "email", user.Email)
	return user, nil
}

// UserByEmail looks an account up for authentication.
func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (core.User, error) {
	var user core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`,
		email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// UserByID looks an account up for ownership checks.
func (r *SQLiteRepository) UserByID(ctx context.Context, id int64) (core.User, error) {
	var user core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = ?`,
		id,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}
