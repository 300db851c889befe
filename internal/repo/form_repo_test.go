package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/formflow-backend/internal/domain"
)

func TestCreateForm_FillsDefaults(t *testing.T) {
	db := newTestDB(t, &domain.User{}, &domain.Form{})
	seedUser(t, db, "u1")

	f := &domain.Form{
		OwnerID:  "u1",
		PublicID: "abc",
		Name:     "Contact",
		Icon:     "mail",
		Fields:   []domain.FormField{{Type: "email", Name: "email", Label: "Email", Required: true}},
	}
	if err := CreateForm(context.Background(), db, f); err != nil {
		t.Fatalf("CreateForm: %v", err)
	}
	if f.ID == "" || f.Status != domain.FormStatusDraft || f.CreatedAt.IsZero() || !f.UpdatedAt.Equal(f.CreatedAt) {
		t.Fatalf("defaults not applied: %+v", f)
	}

	got, err := GetFormByPublicID(context.Background(), db, "abc")
	if err != nil {
		t.Fatalf("GetFormByPublicID: %v", err)
	}
	if got.Name != "Contact" || len(got.Fields) != 1 || !got.Fields[0].Required || got.PublishedAt != nil {
		t.Fatalf("unexpected readback: %+v", got)
	}
}

func TestCreateForm_DuplicatePublicID(t *testing.T) {
	db := newTestDB(t, &domain.User{}, &domain.Form{})
	seedUser(t, db, "u1")
	ctx := context.Background()

	if err := CreateForm(ctx, db, &domain.Form{OwnerID: "u1", PublicID: "same", Name: "a", Icon: "file"}); err != nil {
		t.Fatalf("first: %v", err)
	}
	err := CreateForm(ctx, db, &domain.Form{OwnerID: "u1", PublicID: "same", Name: "b", Icon: "file"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetOwnedForm_HidesOtherOwners(t *testing.T) {
	db := newTestDB(t, &domain.User{}, &domain.Form{})
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	seedForm(t, db, "f1", "u1", "p1", domain.FormStatusDraft, time.Now().UTC())

	if _, err := GetOwnedForm(context.Background(), db, "p1", "u1"); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	if _, err := GetOwnedForm(context.Background(), db, "p1", "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner, got %v", err)
	}
	if _, err := GetFormByPublicID(context.Background(), db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestPublishForm_TransitionsOnce(t *testing.T) {
	db := newTestDB(t, &domain.User{}, &domain.Form{})
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	created := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	seedForm(t, db, "f1", "u1", "p1", domain.FormStatusDraft, created)
	ctx := context.Background()

	first := time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)
	changed, err := PublishForm(ctx, db, "p1", "u1", first)
	if err != nil || !changed {
		t.Fatalf("publish: changed=%v err=%v", changed, err)
	}
	got, _ := GetFormByPublicID(ctx, db, "p1")
	if got.Status != domain.FormStatusPublished || got.PublishedAt == nil || !got.PublishedAt.Equal(first) {
		t.Fatalf("unexpected after publish: %+v", got)
	}

	// Second publish is a no-op success and keeps the first timestamp.
	changed, err = PublishForm(ctx, db, "p1", "u1", first.Add(time.Hour))
	if err != nil || changed {
		t.Fatalf("republish: changed=%v err=%v", changed, err)
	}
	again, _ := GetFormByPublicID(ctx, db, "p1")
	if !again.PublishedAt.Equal(first) || !again.UpdatedAt.Equal(first) {
		t.Fatalf("republish must not touch timestamps: %+v", again)
	}

	if _, err := PublishForm(ctx, db, "p1", "u2", first); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner, got %v", err)
	}
	if _, err := PublishForm(ctx, db, "missing", "u1", first); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown form, got %v", err)
	}
}

func TestListFormsByOwner_NewestFirst(t *testing.T) {
	db := newTestDB(t, &domain.User{}, &domain.Form{})
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seedForm(t, db, "f1", "u1", "p1", domain.FormStatusDraft, base)
	seedForm(t, db, "f2", "u1", "p2", domain.FormStatusDraft, base.Add(time.Hour))
	seedForm(t, db, "f3", "u2", "p3", domain.FormStatusDraft, base.Add(2*time.Hour))
	ctx := context.Background()

	list, err := ListFormsByOwner(ctx, db, "u1")
	if err != nil {
		t.Fatalf("ListFormsByOwner: %v", err)
	}
	if len(list) != 2 || list[0].PublicID != "p2" || list[1].PublicID != "p1" {
		t.Fatalf("unexpected order: %+v", list)
	}

	n, err := CountFormsByOwner(ctx, db, "u1")
	if err != nil || n != 2 {
		t.Fatalf("CountFormsByOwner: n=%d err=%v", n, err)
	}

	empty, err := ListFormsByOwner(ctx, db, "nobody")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty list, got %v err=%v", empty, err)
	}
}
