// Package services – DashboardService
//
// DashboardService is a pure read composition over the form and response
// stores: headline counts for an owner, and a cheap fingerprint of the
// owner's form listing used for conditional GETs.
package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// DashboardRepo defines the aggregate queries required by DashboardService.
type DashboardRepo interface {
	CountFormsByOwner(ctx context.Context, db *gorm.DB, ownerID string) (int64, error)
	CountResponsesByOwner(ctx context.Context, db *gorm.DB, ownerID string) (int64, error)
	FormsStats(ctx context.Context, db *gorm.DB, ownerID string) (count int64, maxUpdatedAt *time.Time, responses int64, err error)
}

// DashboardStats are the owner's headline numbers.
type DashboardStats struct {
	TotalForms     int64
	TotalResponses int64
}

// DashboardService computes owner aggregates.
type DashboardService struct {
	DB   *gorm.DB
	Repo DashboardRepo
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(db *gorm.DB, r DashboardRepo) *DashboardService {
	return &DashboardService{DB: db, Repo: r}
}

// Stats counts ownerID's forms and the responses they received.
func (s *DashboardService) Stats(ctx context.Context, ownerID string) (DashboardStats, error) {
	ctx, span := otel.Tracer("services/DashboardService").Start(ctx, "Stats",
		trace.WithAttributes(attribute.String("user.id", ownerID)),
	)
	defer span.End()

	forms, err := s.Repo.CountFormsByOwner(ctx, s.DB, ownerID)
	if err != nil {
		return DashboardStats{}, err
	}
	responses, err := s.Repo.CountResponsesByOwner(ctx, s.DB, ownerID)
	if err != nil {
		return DashboardStats{}, err
	}
	return DashboardStats{TotalForms: forms, TotalResponses: responses}, nil
}

// FormsETag returns a weak ETag for ownerID's form listing. It changes when a
// form is created or published, or a response is submitted.
func (s *DashboardService) FormsETag(ctx context.Context, ownerID string) (string, error) {
	count, maxTS, responses, err := s.Repo.FormsStats(ctx, s.DB, ownerID)
	if err != nil {
		return "", err
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	return fmt.Sprintf(`W/"forms:%s:%d:%d:%d"`, ownerID, count, ts, responses), nil
}
