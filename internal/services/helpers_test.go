package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/formflow-backend/internal/auth"
	"github.com/tbourn/formflow-backend/internal/domain"
	"github.com/tbourn/formflow-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:formsvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// store adapts the repo free functions to every service contract.
type store struct{}

func (store) CreateUser(ctx context.Context, db *gorm.DB, username, email, hash string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, username, email, hash)
}
func (store) GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.GetUserByEmail(ctx, db, email)
}
func (store) CreateForm(ctx context.Context, db *gorm.DB, f *domain.Form) error {
	return repo.CreateForm(ctx, db, f)
}
func (store) GetFormByPublicID(ctx context.Context, db *gorm.DB, publicID string) (*domain.Form, error) {
	return repo.GetFormByPublicID(ctx, db, publicID)
}
func (store) GetOwnedForm(ctx context.Context, db *gorm.DB, publicID, ownerID string) (*domain.Form, error) {
	return repo.GetOwnedForm(ctx, db, publicID, ownerID)
}
func (store) PublishForm(ctx context.Context, db *gorm.DB, publicID, ownerID string, at time.Time) (bool, error) {
	return repo.PublishForm(ctx, db, publicID, ownerID, at)
}
func (store) ListFormsByOwner(ctx context.Context, db *gorm.DB, ownerID string) ([]domain.Form, error) {
	return repo.ListFormsByOwner(ctx, db, ownerID)
}
func (store) CountFormsByOwner(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	return repo.CountFormsByOwner(ctx, db, ownerID)
}
func (store) CountResponses(ctx context.Context, db *gorm.DB, publicID string) (int64, error) {
	return repo.CountResponses(ctx, db, publicID)
}
func (store) CountResponsesByOwner(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	return repo.CountResponsesByOwner(ctx, db, ownerID)
}
func (store) CreateResponse(ctx context.Context, db *gorm.DB, publicID string, payload map[string]any, addr string) (*domain.Response, error) {
	return repo.CreateResponse(ctx, db, publicID, payload, addr)
}
func (store) ListResponsesPage(ctx context.Context, db *gorm.DB, publicID string, offset, limit int) ([]domain.Response, error) {
	return repo.ListResponsesPage(ctx, db, publicID, offset, limit)
}
func (store) FormsStats(ctx context.Context, db *gorm.DB, ownerID string) (int64, *time.Time, int64, error) {
	return repo.FormsStats(ctx, db, ownerID)
}
func (store) GetIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, userID, scope, key, now)
}
func (store) CreateIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key, resourceID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, userID, scope, key, resourceID, status, ttl)
}

func newIssuer(t *testing.T) *auth.Issuer {
	t.Helper()
	iss, err := auth.NewIssuer("test-secret-0123456789", "formflow", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	return iss
}

// seedOwner inserts a user directly and returns its id.
func seedOwner(t *testing.T, db *gorm.DB, name string) string {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), db, name, name+"@example.com", "x")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.ID
}
