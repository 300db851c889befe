// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/formflow-backend/internal/domain"
)

// FormsStats returns aggregate metadata for an owner's forms: the number of
// forms, the greatest UpdatedAt among them, and the number of responses they
// have received. Any new form, publish, or submission changes the result.
//
// When the owner has no forms, count and responses are 0 and maxUpdatedAt is nil.
func FormsStats(ctx context.Context, db *gorm.DB, ownerID string) (count int64, maxUpdatedAt *time.Time, responses int64, err error) {
	// Session makes q safe to reuse for both statements.
	q := db.WithContext(ctx).Model(&domain.Form{}).Where("owner_id = ?", ownerID).Session(&gorm.Session{})

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, 0, err
	}
	if count == 0 {
		return 0, nil, 0, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, 0, err
	}

	if responses, err = CountResponsesByOwner(ctx, db, ownerID); err != nil {
		return 0, nil, 0, err
	}
	return count, &row.UpdatedAt, responses, nil
}
