// Package domain defines the persistence models for users, forms, and form
// responses. These types are mapped with GORM and form the core data layer
// of the form builder.
package domain

import (
	"time"
)

// FormStatus is the lifecycle state of a Form. The only transition is
// draft -> published.
type FormStatus string

const (
	FormStatusDraft     FormStatus = "draft"
	FormStatusPublished FormStatus = "published"
)

// User is a registered account that owns forms.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Username: display name returned on login and carried in tokens.
//   - Email: login identifier; unique across users (unique index).
//   - PasswordHash: bcrypt hash, never serialized.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID           string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Username     string    `json:"username"  gorm:"type:varchar(100);not null"`
	Email        string    `json:"email"     gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string    `json:"-"         gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// FormField describes one input of a form as exported by the browser builder.
type FormField struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Placeholder string   `json:"placeholder,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// Form is a form definition owned by a single user. Anonymous clients only
// ever see PublicID; ID and OwnerID stay internal.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - OwnerID: owning user (indexed with CreatedAt for newest-first listing).
//   - PublicID: opaque random identifier (unique index, immutable).
//   - Status: "draft" or "published" (enforced by DB constraint).
//   - Fields: ordered field descriptors, stored as JSON.
//   - PublishedAt: set on the first publish, nil while draft.
type Form struct {
	ID          string      `json:"-"           gorm:"type:char(36);primaryKey"`
	OwnerID     string      `json:"-"           gorm:"type:char(36);not null;index:idx_owner_forms,priority:1"`
	PublicID    string      `json:"publicId"    gorm:"type:varchar(64);not null;uniqueIndex:ux_forms_public_id"`
	Name        string      `json:"name"        gorm:"type:varchar(255);not null"`
	Description string      `json:"description" gorm:"type:text"`
	Status      FormStatus  `json:"status"      gorm:"type:varchar(16);not null;default:'draft';check:status IN ('draft','published')"`
	Icon        string      `json:"icon"        gorm:"type:varchar(64);not null;default:'file'"`
	Fields      []FormField `json:"fields"      gorm:"type:text;serializer:json"`
	PublishedAt *time.Time  `json:"publishedAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"   gorm:"index:idx_owner_forms,priority:2"`
	UpdatedAt   time.Time   `json:"updatedAt"`

	// Owner is the user the form belongs to.
	Owner User `json:"-" gorm:"foreignKey:OwnerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Form.
func (Form) TableName() string { return "forms" }

// IsPublished reports whether the form accepts public reads and submissions.
func (f *Form) IsPublished() bool { return f != nil && f.Status == FormStatusPublished }

// Response is one anonymous submission against a published form. Responses
// join forms by PublicID because that is the only identifier the submitter
// ever knows.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - FormPublicID: the form's public identifier (indexed with SubmittedAt).
//   - Payload: field name -> submitted value, stored as JSON.
//   - SubmittedAt: submission time (UTC).
//   - SubmitterAddress: client IP as seen by the server; never serialized.
type Response struct {
	ID               string         `json:"id"          gorm:"type:char(36);primaryKey"`
	FormPublicID     string         `json:"-"           gorm:"type:varchar(64);not null;index:idx_form_responses,priority:1"`
	Payload          map[string]any `json:"payload"     gorm:"type:text;serializer:json"`
	SubmittedAt      time.Time      `json:"submittedAt" gorm:"not null;index:idx_form_responses,priority:2"`
	SubmitterAddress string         `json:"-"           gorm:"type:varchar(64)"`

	// Form is the target form. Responses reference the public identifier.
	Form Form `json:"-" gorm:"foreignKey:FormPublicID;references:PublicID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Response.
func (Response) TableName() string { return "responses" }
