package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/formflow-backend/internal/domain"
)

func TestCreateUser_AndLookups(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	u, err := CreateUser(ctx, db, "alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" || u.Username != "alice" || u.CreatedAt.IsZero() {
		t.Fatalf("unexpected user: %+v", u)
	}

	byEmail, err := GetUserByEmail(ctx, db, "alice@example.com")
	if err != nil || byEmail.ID != u.ID || byEmail.PasswordHash != "hash" {
		t.Fatalf("GetUserByEmail: got=%+v err=%v", byEmail, err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	if _, err := CreateUser(ctx, db, "alice", "dup@example.com", "h1"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := CreateUser(ctx, db, "alice2", "dup@example.com", "h2")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	var n int64
	db.Model(&domain.User{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected one user, got %d", n)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	if _, err := GetUserByEmail(ctx, db, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound by email, got %v", err)
	}
}

func TestCreateUser_Error_NoTable(t *testing.T) {
	db := newTestDB(t)
	_, err := CreateUser(context.Background(), db, "a", "a@b.c", "h")
	if err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected raw error, got %v", err)
	}
}
