package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/formflow-backend/internal/domain"
	"github.com/tbourn/formflow-backend/internal/repo"
)

// newMockDB returns a gorm handle backed by sqlmock (postgres dialect).
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return db, mock
}

// publishedForm creates and publishes a form for owner and returns it.
func publishedForm(t *testing.T, db *gorm.DB, owner string, fields []domain.FormField) *domain.Form {
	t.Helper()
	fs := NewFormService(db, store{}, "http://x")
	f, err := fs.Create(context.Background(), owner, CreateFormInput{Name: "Survey", Fields: fields})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := fs.Publish(context.Background(), owner, f.PublicID); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	return f
}

func TestSubmit_UnknownAndDraftAreNotFound(t *testing.T) {
	db := newTestDB(t)
	alice := seedOwner(t, db, "alice")
	fs := NewFormService(db, store{}, "http://x")
	s := NewResponseService(db, store{})
	ctx := context.Background()

	draft, err := fs.Create(ctx, alice, CreateFormInput{Name: "Draft"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Submit(ctx, draft.PublicID, map[string]any{"a": 1}, ""); !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound for draft, got %v", err)
	}
	if _, err := s.Submit(ctx, "missing", map[string]any{"a": 1}, ""); !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound for unknown, got %v", err)
	}
	if n, _ := repo.CountResponses(ctx, db, draft.PublicID); n != 0 {
		t.Fatalf("no response may be stored for a draft, got %d", n)
	}
}

func TestSubmit_NilPayloadIsValidationError(t *testing.T) {
	s := NewResponseService(nil, store{})
	if _, err := s.Submit(context.Background(), "p", nil, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSubmit_FiltersAndRequires(t *testing.T) {
	db := newTestDB(t)
	alice := seedOwner(t, db, "alice")
	f := publishedForm(t, db, alice, []domain.FormField{
		{Type: "email", Name: "email", Label: "Email", Required: true},
		{Type: "textarea", Name: "notes", Label: "Notes"},
	})
	s := NewResponseService(db, store{})
	ctx := context.Background()

	if _, err := s.Submit(ctx, f.PublicID, map[string]any{"notes": "hi"}, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing required, got %v", err)
	}

	r, err := s.Submit(ctx, f.PublicID, map[string]any{"email": "a@x.com", "bogus": 1}, "10.0.0.1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if r.ID == "" || r.SubmittedAt.IsZero() {
		t.Fatalf("unexpected response: %+v", r)
	}
	page, err := s.List(ctx, alice, f.PublicID, 1, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || len(page.Responses) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
	got := page.Responses[0].Payload
	if _, ok := got["bogus"]; ok || got["email"] != "a@x.com" {
		t.Fatalf("unexpected stored payload: %#v", got)
	}
}

func TestList_PagingAndOwnership(t *testing.T) {
	db := newTestDB(t)
	alice := seedOwner(t, db, "alice")
	bob := seedOwner(t, db, "bob")
	f := publishedForm(t, db, alice, nil)
	s := NewResponseService(db, store{})
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		r, err := s.Submit(ctx, f.PublicID, map[string]any{"n": i}, "")
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		ids = append(ids, r.ID)
		time.Sleep(2 * time.Millisecond)
	}

	page, err := s.List(ctx, alice, f.PublicID, 1, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.FormName != "Survey" || page.Total != 5 || page.Page != 1 || page.PageSize != 2 {
		t.Fatalf("unexpected page meta: %+v", page)
	}
	if len(page.Responses) != 2 || page.Responses[0].ID != ids[4] || page.Responses[1].ID != ids[3] {
		t.Fatalf("expected newest first, got %+v", page.Responses)
	}

	last, err := s.List(ctx, alice, f.PublicID, 3, 2)
	if err != nil || len(last.Responses) != 1 || last.Responses[0].ID != ids[0] || last.Total != 5 {
		t.Fatalf("unexpected last page: %+v err=%v", last, err)
	}

	beyond, err := s.List(ctx, alice, f.PublicID, 10, 2)
	if err != nil || len(beyond.Responses) != 0 || beyond.Total != 5 {
		t.Fatalf("unexpected page beyond end: %+v err=%v", beyond, err)
	}

	// Defaults and caps.
	def, err := s.List(ctx, alice, f.PublicID, 0, 0)
	if err != nil || def.Page != 1 || def.PageSize != 50 {
		t.Fatalf("unexpected defaults: %+v err=%v", def, err)
	}
	capped, err := s.List(ctx, alice, f.PublicID, 1, 10_000)
	if err != nil || capped.PageSize != 200 {
		t.Fatalf("unexpected cap: %+v err=%v", capped, err)
	}

	if _, err := s.List(ctx, bob, f.PublicID, 1, 10); !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound for non-owner, got %v", err)
	}
}

func TestSubmit_StoreFailureIsNotASentinel(t *testing.T) {
	db, mock := newMockDB(t)
	boom := errors.New("connection reset by peer")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "forms"`).WillReturnError(boom)
	mock.ExpectRollback()

	s := NewResponseService(db, store{})
	_, err := s.Submit(context.Background(), "p1", map[string]any{"a": "b"}, "")
	if !errors.Is(err, boom) {
		t.Fatalf("expected raw store error, got %v", err)
	}
	for _, sentinel := range []error{ErrFormNotFound, ErrValidation} {
		if errors.Is(err, sentinel) {
			t.Fatalf("store failure must not map to %v", sentinel)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
}

func TestList_StoreFailureIsNotASentinel(t *testing.T) {
	db, mock := newMockDB(t)
	boom := errors.New("too many connections")
	mock.ExpectQuery(`SELECT \* FROM "forms"`).WillReturnError(boom)

	s := NewResponseService(db, store{})
	if _, err := s.List(context.Background(), "u1", "p1", 1, 10); !errors.Is(err, boom) {
		t.Fatalf("expected raw store error, got %v", err)
	}
}
