// Package auth verifies credentials and issues the bearer tokens that scope
// every ledger and register operation to its owner.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"spence/internal/core"
)

// UserRepository is the slice of storage the authenticator needs.
type UserRepository interface {
	CreateUser(ctx context.Context, email, passwordHash string) (core.User, error)
	UserByEmail(ctx context.Context, email string) (core.User, error)
}

const minPasswordLength = 8

type Service struct {
	users      UserRepository
	tokens     *TokenIssuer
	bcryptCost int
}

func NewService(users UserRepository, tokens *TokenIssuer, bcryptCost int) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

// Register creates an account and returns a bearer token for it. A taken
// email surfaces as core.ErrEmailTaken.
func (s *Service) Register(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return "", err
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return "", err
	}

	user, err := s.users.CreateUser(ctx, email, hash)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}

	slog.InfoContext(ctx, "Account registered", "user_id", user.ID, "email", user.Email)
	return s.tokens.Issue(user)
}

// Login verifies credentials and returns a bearer token. Unknown email and
// password mismatch both surface as core.ErrInvalidCredentials so callers
// cannot probe which emails exist.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.UserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, core.ErrNotFound) {
		return "", core.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		slog.WarnContext(ctx, "Password mismatch", "user_id", user.ID)
		return "", core.ErrInvalidCredentials
	}

	return s.tokens.Issue(user)
}

func validateCredentials(email, password string) error {
	fields := make(map[string]string)
	if email == "" {
		fields["email"] = "email is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "invalid email address"
	}
	if len(password) < minPasswordLength {
		fields["password"] = "password must be at least 8 characters"
	}
	if len(fields) > 0 {
		return &core.ValidationError{Fields: fields}
	}
	return nil
}
