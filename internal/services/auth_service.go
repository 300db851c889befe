// Package services – AuthService
//
// This file implements AuthService, which registers accounts, exchanges
// credentials for bearer tokens, and verifies presented tokens. Passwords are
// only ever stored as bcrypt hashes and the token is the sole carrier of the
// caller's identity; there is no server-side session.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/formflow-backend/internal/auth"
	"github.com/tbourn/formflow-backend/internal/domain"
	"github.com/tbourn/formflow-backend/internal/repo"
)

// UserRepo defines the identity store contract required by AuthService.
type UserRepo interface {
	// CreateUser inserts a user; a taken email yields repo.ErrDuplicate.
	CreateUser(ctx context.Context, db *gorm.DB, username, email, passwordHash string) (*domain.User, error)
	// GetUserByEmail returns repo.ErrNotFound when no account matches.
	GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Sign(userID, username string) (string, error)
	Verify(raw string) (auth.Identity, error)
	TTL() time.Duration
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

// AuthService implements registration, login and token verification.
type AuthService struct {
	DB     *gorm.DB
	Repo   UserRepo
	Tokens TokenIssuer

	// MinPasswordRunes is the shortest accepted password.
	MinPasswordRunes int
	// UsernameMaxLen caps usernames by rune length.
	UsernameMaxLen int

	now func() time.Time
}

// NewAuthService constructs an AuthService with default credential rules.
func NewAuthService(db *gorm.DB, r UserRepo, tokens TokenIssuer) *AuthService {
	return &AuthService{
		DB:               db,
		Repo:             r,
		Tokens:           tokens,
		MinPasswordRunes: 8,
		UsernameMaxLen:   100,
		now:              time.Now,
	}
}

// Register creates an account. The email is trimmed and lower-cased before
// storage; the unique index on email is the authority on duplicates.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	ctx, span := otel.Tracer("services/AuthService").Start(ctx, "Register")
	defer span.End()

	username = norm.NFC.String(strings.TrimSpace(username))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if s.UsernameMaxLen > 0 && utf8.RuneCountInString(username) > s.UsernameMaxLen {
		return nil, fmt.Errorf("%w: username must be at most %d characters", ErrValidation, s.UsernameMaxLen)
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(password) < s.MinPasswordRunes {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, s.MinPasswordRunes)
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, auth.MaxPasswordBytes)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u, err := s.Repo.CreateUser(ctx, s.DB, username, email, hash)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", u.ID))
	return u, nil
}

// Login exchanges credentials for a signed token. An unknown email and a
// wrong password produce the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	ctx, span := otel.Tracer("services/AuthService").Start(ctx, "Login")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.Repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	issuedAt := s.now()
	tok, err := s.Tokens.Sign(u.ID, u.Username)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", u.ID))
	return &Session{
		Token:     tok,
		Username:  u.Username,
		ExpiresAt: issuedAt.Add(s.Tokens.TTL()).UTC(),
	}, nil
}

// Verify resolves an Authorization header value to the caller's identity.
// A missing or non-Bearer header yields ErrUnauthenticated; a token that
// fails verification yields ErrInvalidToken.
func (s *AuthService) Verify(ctx context.Context, authorization string) (auth.Identity, error) {
	_, span := otel.Tracer("services/AuthService").Start(ctx, "Verify")
	defer span.End()

	raw, ok := bearerToken(authorization)
	if !ok {
		return auth.Identity{}, ErrUnauthenticated
	}
	id, err := s.Tokens.Verify(raw)
	if err != nil {
		return auth.Identity{}, ErrInvalidToken
	}
	span.SetAttributes(attribute.String("user.id", id.UserID))
	return id, nil
}

// bearerToken extracts the token from "Bearer <token>" (scheme is
// case-insensitive).
func bearerToken(h string) (string, bool) {
	h = strings.TrimSpace(h)
	const scheme = "bearer "
	if len(h) <= len(scheme) || !strings.EqualFold(h[:len(scheme)], scheme) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(scheme):])
	return tok, tok != ""
}

// normalizeEmail trims, lower-cases and validates a bare address.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: email is not a valid address", ErrValidation)
	}
	return email, nil
}
