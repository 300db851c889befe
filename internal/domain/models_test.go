package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	if (User{}).TableName() != "users" {
		t.Fatalf("User.TableName() = %q; want %q", (User{}).TableName(), "users")
	}
	if (Form{}).TableName() != "forms" {
		t.Fatalf("Form.TableName() = %q; want %q", (Form{}).TableName(), "forms")
	}
	if (Response{}).TableName() != "responses" {
		t.Fatalf("Response.TableName() = %q; want %q", (Response{}).TableName(), "responses")
	}
}

func TestForm_IsPublished(t *testing.T) {
	var nilForm *Form
	if nilForm.IsPublished() {
		t.Fatalf("nil form must not be published")
	}
	if (&Form{Status: FormStatusDraft}).IsPublished() {
		t.Fatalf("draft form reported as published")
	}
	if !(&Form{Status: FormStatusPublished}).IsPublished() {
		t.Fatalf("published form reported as draft")
	}
}

func TestMigrations_Indexes_JSONColumns_AndConstraints(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&User{}, &Form{}, &Response{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	for _, tbl := range []any{&User{}, &Form{}, &Response{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&User{}, "ux_users_email") {
		t.Fatalf("expected unique index ux_users_email on users")
	}
	if !m.HasIndex(&Form{}, "ux_forms_public_id") {
		t.Fatalf("expected unique index ux_forms_public_id on forms")
	}
	if !m.HasIndex(&Form{}, "idx_owner_forms") {
		t.Fatalf("expected index idx_owner_forms on forms")
	}
	if !m.HasIndex(&Response{}, "idx_form_responses") {
		t.Fatalf("expected index idx_form_responses on responses")
	}

	now := time.Now().UTC()
	u := &User{ID: "u1", Username: "alice", Email: "a@x.com", PasswordHash: "h", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}
	dup := &User{ID: "u2", Username: "bob", Email: "a@x.com", PasswordHash: "h", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected unique violation on duplicate email")
	}

	f := &Form{
		ID: "f1", OwnerID: "u1", PublicID: "p1", Name: "Survey", Status: FormStatusDraft, Icon: "file",
		Fields:    []FormField{{Type: "text", Name: "q1", Label: "Q1", Required: true}},
		CreatedAt: now, UpdatedAt: now,
	}
	if err := db.Create(f).Error; err != nil {
		t.Fatalf("insert form: %v", err)
	}
	clash := &Form{ID: "f2", OwnerID: "u1", PublicID: "p1", Name: "Other", Status: FormStatusDraft, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(clash).Error; err == nil {
		t.Fatalf("expected unique violation on duplicate public id")
	}
	bad := &Form{ID: "f3", OwnerID: "u1", PublicID: "p3", Name: "Bad", Status: "archived", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected check constraint violation on unknown status")
	}

	var got Form
	if err := db.First(&got, "public_id = ?", "p1").Error; err != nil {
		t.Fatalf("read form: %v", err)
	}
	if len(got.Fields) != 1 || got.Fields[0].Name != "q1" || !got.Fields[0].Required {
		t.Fatalf("fields did not round-trip: %+v", got.Fields)
	}

	r := &Response{ID: "r1", FormPublicID: "p1", Payload: map[string]any{"q1": "yes"}, SubmittedAt: now, SubmitterAddress: "203.0.113.7"}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("insert response: %v", err)
	}
	var gotR Response
	if err := db.First(&gotR, "id = ?", "r1").Error; err != nil {
		t.Fatalf("read response: %v", err)
	}
	if gotR.Payload["q1"] != "yes" {
		t.Fatalf("payload did not round-trip: %+v", gotR.Payload)
	}
}
