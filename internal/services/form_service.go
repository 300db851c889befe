// Package services – FormService
//
// This file implements the owner side of the form lifecycle:
//
//	draft --publish--> published
//
// FormService creates drafts under a fresh random public identifier, publishes
// them, serves the public (published-only) view, and lists an owner's forms
// with their response counts. Ownership and visibility failures are both
// reported as ErrFormNotFound so callers cannot probe for other users' forms.
//
// Observability: public methods are OpenTelemetry-instrumented and lifecycle
// transitions are counted in Prometheus.
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/formflow-backend/internal/domain"
	"github.com/tbourn/formflow-backend/internal/repo"
)

const (
	// publicIDBytes is the entropy of a public identifier (128 bits).
	publicIDBytes = 16
	// defaultIcon is stored when the builder sends no icon.
	defaultIcon = "file"
)

// FormRepo defines the Form Store contract required by FormService.
type FormRepo interface {
	CreateForm(ctx context.Context, db *gorm.DB, f *domain.Form) error
	GetFormByPublicID(ctx context.Context, db *gorm.DB, publicID string) (*domain.Form, error)
	PublishForm(ctx context.Context, db *gorm.DB, publicID, ownerID string, at time.Time) (bool, error)
	ListFormsByOwner(ctx context.Context, db *gorm.DB, ownerID string) ([]domain.Form, error)
	CountResponses(ctx context.Context, db *gorm.DB, formPublicID string) (int64, error)

	GetIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key string, now time.Time) (*domain.Idempotency, error)
	CreateIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key, resourceID string, status int, ttl time.Duration) (*domain.Idempotency, error)
}

// CreateFormInput carries the builder's payload for a new form.
type CreateFormInput struct {
	Name        string
	Description string
	Icon        string
	Fields      []domain.FormField
}

// FormSummary is one row of an owner's form listing.
type FormSummary struct {
	PublicID  string
	Name      string
	Status    domain.FormStatus
	Icon      string
	Responses int64
	CreatedAt time.Time
}

// FormService implements the form lifecycle for owners and the public view.
type FormService struct {
	DB   *gorm.DB
	Repo FormRepo

	// BaseURL prefixes share links: BaseURL + "/f/" + publicId.
	BaseURL string
	// NameMaxLen caps form names by rune length.
	NameMaxLen int
	// DescriptionMaxLen caps descriptions by rune length.
	DescriptionMaxLen int
	// MaxAttempts bounds public id regeneration on collision.
	MaxAttempts int
	// IdempotencyTTL is how long a create Idempotency-Key is remembered.
	IdempotencyTTL time.Duration

	// NewPublicID generates public identifiers; defaults to 16 random bytes, hex.
	NewPublicID func() (string, error)
	// Now is the clock used for publish timestamps.
	Now func() time.Time
}

// NewFormService constructs a FormService with default limits.
func NewFormService(db *gorm.DB, r FormRepo, baseURL string) *FormService {
	return &FormService{
		DB:                db,
		Repo:              r,
		BaseURL:           strings.TrimRight(baseURL, "/"),
		NameMaxLen:        200,
		DescriptionMaxLen: 2000,
		MaxAttempts:       5,
		IdempotencyTTL:    24 * time.Hour,
		NewPublicID:       randomPublicID,
		Now:               func() time.Time { return time.Now().UTC() },
	}
}

// ShareURL returns the public link for publicID.
func (s *FormService) ShareURL(publicID string) string {
	return s.BaseURL + "/f/" + publicID
}

// Create validates the input and stores a new draft owned by ownerID under a
// fresh public identifier. A public id collision is retried with a new id up
// to MaxAttempts times.
func (s *FormService) Create(ctx context.Context, ownerID string, in CreateFormInput) (*domain.Form, error) {
	ctx, span := otel.Tracer("services/FormService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", ownerID)),
	)
	defer span.End()

	f, err := s.buildDraft(ownerID, in)
	if err != nil {
		return nil, err
	}
	if err := s.insert(ctx, s.DB, f); err != nil {
		return nil, err
	}
	formsCreated.Inc()
	span.SetAttributes(attribute.String("form.public_id", f.PublicID))
	return f, nil
}

// CreateIdempotent behaves like Create but remembers key for IdempotencyTTL.
// Replaying the same key returns the form created the first time and
// replayed=true. An empty key is the same as calling Create.
func (s *FormService) CreateIdempotent(ctx context.Context, ownerID, key string, in CreateFormInput) (f *domain.Form, replayed bool, err error) {
	key = strings.TrimSpace(key)
	if key == "" {
		f, err = s.Create(ctx, ownerID, in)
		return f, false, err
	}

	ctx, span := otel.Tracer("services/FormService").Start(ctx, "CreateIdempotent",
		trace.WithAttributes(attribute.String("user.id", ownerID)),
	)
	defer span.End()

	if f, ok, err := s.replay(ctx, ownerID, key); err != nil || ok {
		return f, ok, err
	}

	draft, err := s.buildDraft(ownerID, in)
	if err != nil {
		return nil, false, err
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.insert(ctx, tx, draft); err != nil {
			return err
		}
		_, err := s.Repo.CreateIdempotency(ctx, tx, ownerID, domain.IdempotencyScopeCreateForm, key, draft.PublicID, http.StatusCreated, s.IdempotencyTTL)
		return err
	})
	if errors.Is(err, repo.ErrDuplicate) {
		// A concurrent request with the same key won; hand back its form.
		if f, ok, rerr := s.replay(ctx, ownerID, key); rerr != nil || ok {
			return f, ok, rerr
		}
	}
	if err != nil {
		return nil, false, err
	}
	formsCreated.Inc()
	return draft, false, nil
}

// replay resolves a remembered key to the form it created.
func (s *FormService) replay(ctx context.Context, ownerID, key string) (*domain.Form, bool, error) {
	rec, err := s.Repo.GetIdempotency(ctx, s.DB, ownerID, domain.IdempotencyScopeCreateForm, key, s.Now())
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	f, err := s.Repo.GetFormByPublicID(ctx, s.DB, rec.ResourceID)
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return f, true, nil
}

// buildDraft validates and normalizes the input into an unsaved draft.
func (s *FormService) buildDraft(ownerID string, in CreateFormInput) (*domain.Form, error) {
	name := collapseSpaces(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if s.NameMaxLen > 0 && utf8.RuneCountInString(name) > s.NameMaxLen {
		return nil, fmt.Errorf("%w: name must be at most %d characters", ErrValidation, s.NameMaxLen)
	}
	desc := strings.TrimSpace(in.Description)
	if s.DescriptionMaxLen > 0 && utf8.RuneCountInString(desc) > s.DescriptionMaxLen {
		return nil, fmt.Errorf("%w: description must be at most %d characters", ErrValidation, s.DescriptionMaxLen)
	}
	icon := strings.TrimSpace(in.Icon)
	if icon == "" {
		icon = defaultIcon
	}
	if utf8.RuneCountInString(icon) > 64 {
		return nil, fmt.Errorf("%w: icon must be at most 64 characters", ErrValidation)
	}
	fields, err := normalizeFields(in.Fields)
	if err != nil {
		return nil, err
	}
	return &domain.Form{
		OwnerID:     ownerID,
		Name:        name,
		Description: desc,
		Icon:        icon,
		Status:      domain.FormStatusDraft,
		Fields:      fields,
	}, nil
}

// insert assigns a public id and stores f, regenerating on collision.
func (s *FormService) insert(ctx context.Context, db *gorm.DB, f *domain.Form) error {
	attempts := s.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		pid, err := s.NewPublicID()
		if err != nil {
			return fmt.Errorf("generate public id: %w", err)
		}
		f.ID = ""
		f.PublicID = pid
		err = s.Repo.CreateForm(ctx, db, f)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repo.ErrDuplicate) {
			return err
		}
	}
	return fmt.Errorf("public id still colliding after %d attempts", attempts)
}

// Publish moves ownerID's draft to published and returns its share URL.
// Publishing an already-published form succeeds without changes.
func (s *FormService) Publish(ctx context.Context, ownerID, publicID string) (string, error) {
	ctx, span := otel.Tracer("services/FormService").Start(ctx, "Publish",
		trace.WithAttributes(
			attribute.String("user.id", ownerID),
			attribute.String("form.public_id", publicID),
		),
	)
	defer span.End()

	changed, err := s.Repo.PublishForm(ctx, s.DB, publicID, ownerID, s.Now())
	if err != nil {
		if isNotFound(err) {
			return "", ErrFormNotFound
		}
		return "", err
	}
	if changed {
		formsPublished.Inc()
	}
	span.SetAttributes(attribute.Bool("form.changed", changed))
	return s.ShareURL(publicID), nil
}

// GetPublic returns a published form for anonymous rendering. Unknown and
// draft forms are indistinguishable (ErrFormNotFound).
func (s *FormService) GetPublic(ctx context.Context, publicID string) (*domain.Form, error) {
	ctx, span := otel.Tracer("services/FormService").Start(ctx, "GetPublic",
		trace.WithAttributes(attribute.String("form.public_id", publicID)),
	)
	defer span.End()

	f, err := s.Repo.GetFormByPublicID(ctx, s.DB, publicID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	if !f.IsPublished() {
		return nil, ErrFormNotFound
	}
	return f, nil
}

// ListOwnerForms returns ownerID's forms newest first, each with its response
// count (one count query per form).
func (s *FormService) ListOwnerForms(ctx context.Context, ownerID string) ([]FormSummary, error) {
	ctx, span := otel.Tracer("services/FormService").Start(ctx, "ListOwnerForms",
		trace.WithAttributes(attribute.String("user.id", ownerID)),
	)
	defer span.End()

	forms, err := s.Repo.ListFormsByOwner(ctx, s.DB, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]FormSummary, 0, len(forms))
	for _, f := range forms {
		n, err := s.Repo.CountResponses(ctx, s.DB, f.PublicID)
		if err != nil {
			return nil, err
		}
		out = append(out, FormSummary{
			PublicID:  f.PublicID,
			Name:      f.Name,
			Status:    f.Status,
			Icon:      f.Icon,
			Responses: n,
			CreatedAt: f.CreatedAt,
		})
	}
	span.SetAttributes(attribute.Int("forms.count", len(out)))
	return out, nil
}

// randomPublicID returns 16 bytes from crypto/rand, hex encoded.
func randomPublicID() (string, error) {
	b := make([]byte, publicIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
