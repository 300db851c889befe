// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the Response Store.
//
// Responses are keyed by the form's public identifier. The store never
// updates or deletes a response.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/formflow-backend/internal/domain"
)

// CreateResponse inserts a response for formPublicID with the given payload.
func CreateResponse(ctx context.Context, db *gorm.DB, formPublicID string, payload map[string]any, submitterAddress string) (*domain.Response, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	r := &domain.Response{
		ID:               uuid.NewString(),
		FormPublicID:     formPublicID,
		Payload:          payload,
		SubmittedAt:      time.Now().UTC(),
		SubmitterAddress: submitterAddress,
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// CountResponses returns the number of responses recorded for formPublicID.
func CountResponses(ctx context.Context, db *gorm.DB, formPublicID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Response{}).
		Where("form_public_id = ?", formPublicID).
		Count(&total).Error
	return total, err
}

// ListResponsesPage returns a page of responses for formPublicID ordered
// newest-submitted first (SubmittedAt DESC, ID DESC for ties).
func ListResponsesPage(ctx context.Context, db *gorm.DB, formPublicID string, offset, limit int) ([]domain.Response, error) {
	var out []domain.Response
	err := db.WithContext(ctx).
		Where("form_public_id = ?", formPublicID).
		Order("submitted_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountResponsesByOwner returns the number of responses across every form
// owned by ownerID.
func CountResponsesByOwner(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	owned := db.Model(&domain.Form{}).Select("public_id").Where("owner_id = ?", ownerID)

	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Response{}).
		Where("form_public_id IN (?)", owned).
		Count(&total).Error
	return total, err
}
