// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the Form Store.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - A public id collision on insert is returned as ErrDuplicate (enforced by
//     the ux_forms_public_id unique index) so callers can regenerate and retry.
//   - Lookups scoped by owner return ErrNotFound both when the form does not
//     exist and when it belongs to someone else.
//   - On other DB errors (connectivity, constraints, etc.) the raw gorm error
//     is propagated.
//
// Functions:
//
//   - CreateForm(ctx, db, form) -> error
//   - GetFormByPublicID(ctx, db, publicID) -> *domain.Form, error
//   - GetOwnedForm(ctx, db, publicID, ownerID) -> *domain.Form, error
//   - PublishForm(ctx, db, publicID, ownerID, at) -> bool, error
//   - ListFormsByOwner(ctx, db, ownerID) -> []domain.Form, error
//   - CountFormsByOwner(ctx, db, ownerID) -> int64, error
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/formflow-backend/internal/domain"
)

// CreateForm inserts f. An empty ID is filled with a UUID and timestamps
// default to now (UTC). PublicID must already be set by the caller.
func CreateForm(ctx context.Context, db *gorm.DB, f *domain.Form) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = f.CreatedAt
	}
	if f.Status == "" {
		f.Status = domain.FormStatusDraft
	}
	if err := db.WithContext(ctx).Create(f).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetFormByPublicID fetches a form by its public identifier regardless of
// owner or status. Visibility rules belong to the service layer.
func GetFormByPublicID(ctx context.Context, db *gorm.DB, publicID string) (*domain.Form, error) {
	var f domain.Form
	err := db.WithContext(ctx).Where("public_id = ?", publicID).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetOwnedForm fetches a form by public id and owner.
func GetOwnedForm(ctx context.Context, db *gorm.DB, publicID, ownerID string) (*domain.Form, error) {
	var f domain.Form
	err := db.WithContext(ctx).
		Where("public_id = ? AND owner_id = ?", publicID, ownerID).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// PublishForm moves a draft owned by ownerID to published. The update is
// conditional on (public_id, owner_id, status=draft), so concurrent publishes
// race harmlessly. changed reports whether this call performed the
// transition. A form that is already published is left untouched and reported
// as success with changed=false; ErrNotFound is returned when ownerID owns no
// form with that public id.
func PublishForm(ctx context.Context, db *gorm.DB, publicID, ownerID string, at time.Time) (changed bool, err error) {
	res := db.WithContext(ctx).
		Model(&domain.Form{}).
		Where("public_id = ? AND owner_id = ? AND status = ?", publicID, ownerID, domain.FormStatusDraft).
		Updates(map[string]any{
			"status":       domain.FormStatusPublished,
			"published_at": at,
			"updated_at":   at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// Nothing changed: either already published or not ours.
	_, err = GetOwnedForm(ctx, db, publicID, ownerID)
	return false, err
}

// ListFormsByOwner returns all forms owned by ownerID, newest first.
func ListFormsByOwner(ctx context.Context, db *gorm.DB, ownerID string) ([]domain.Form, error) {
	var out []domain.Form
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, err
}

// CountFormsByOwner returns the number of forms owned by ownerID.
func CountFormsByOwner(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Form{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error
	return total, err
}
