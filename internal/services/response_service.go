// Package services – ResponseService
//
// This file implements the submission side of the form lifecycle: anonymous
// clients submit responses to published forms, and owners page through the
// responses their forms received.
//
// The published check and the insert run in one transaction so a response is
// never recorded against a form that is not published at that moment.
package services

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/formflow-backend/internal/domain"
	"github.com/tbourn/formflow-backend/internal/utils"
)

// ResponseRepo defines the store contract required by ResponseService.
type ResponseRepo interface {
	GetFormByPublicID(ctx context.Context, db *gorm.DB, publicID string) (*domain.Form, error)
	GetOwnedForm(ctx context.Context, db *gorm.DB, publicID, ownerID string) (*domain.Form, error)
	CreateResponse(ctx context.Context, db *gorm.DB, formPublicID string, payload map[string]any, submitterAddress string) (*domain.Response, error)
	CountResponses(ctx context.Context, db *gorm.DB, formPublicID string) (int64, error)
	ListResponsesPage(ctx context.Context, db *gorm.DB, formPublicID string, offset, limit int) ([]domain.Response, error)
}

// ResponsePage is one page of an owner's responses for a form. Total is the
// full response count regardless of paging.
type ResponsePage struct {
	FormName  string
	Total     int64
	Page      int
	PageSize  int
	Responses []domain.Response
}

// ResponseService records submissions and lists them for owners.
type ResponseService struct {
	DB   *gorm.DB
	Repo ResponseRepo

	// DefaultPageSize applies when the caller passes pageSize <= 0.
	DefaultPageSize int
	// MaxPageSize bounds pageSize.
	MaxPageSize int
}

// NewResponseService constructs a ResponseService with default paging.
func NewResponseService(db *gorm.DB, r ResponseRepo) *ResponseService {
	return &ResponseService{DB: db, Repo: r, DefaultPageSize: 50, MaxPageSize: 200}
}

// Submit stores payload as a response to the published form publicID.
//
// When the form declares fields, keys that name no field are dropped and
// required fields must carry a non-empty value. A form without declared
// fields stores the payload unchanged.
func (s *ResponseService) Submit(ctx context.Context, publicID string, payload map[string]any, submitterAddress string) (*domain.Response, error) {
	ctx, span := otel.Tracer("services/ResponseService").Start(ctx, "Submit",
		trace.WithAttributes(attribute.String("form.public_id", publicID)),
	)
	defer span.End()

	if payload == nil {
		return nil, fmt.Errorf("%w: payload must be a JSON object", ErrValidation)
	}

	var out *domain.Response
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := s.Repo.GetFormByPublicID(ctx, tx, publicID)
		if err != nil {
			if isNotFound(err) {
				return ErrFormNotFound
			}
			return err
		}
		if !f.IsPublished() {
			return ErrFormNotFound
		}

		clean, err := filterPayload(f.Fields, payload)
		if err != nil {
			return err
		}
		r, err := s.Repo.CreateResponse(ctx, tx, publicID, clean, submitterAddress)
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	responsesSubmitted.Inc()
	span.SetAttributes(attribute.String("response.id", out.ID))
	return out, nil
}

// List returns a page of responses, newest first, for a form owned by
// ownerID. page and pageSize are clamped to [1, ...] and [1, MaxPageSize].
func (s *ResponseService) List(ctx context.Context, ownerID, publicID string, page, pageSize int) (*ResponsePage, error) {
	ctx, span := otel.Tracer("services/ResponseService").Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("user.id", ownerID),
			attribute.String("form.public_id", publicID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	def := s.DefaultPageSize
	if def <= 0 {
		def = 50
	}
	page, pageSize, offset := utils.ClampPage(page, pageSize, def, s.MaxPageSize)

	f, err := s.Repo.GetOwnedForm(ctx, s.DB, publicID, ownerID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}

	total, err := s.Repo.CountResponses(ctx, s.DB, publicID)
	if err != nil {
		return nil, err
	}
	res := &ResponsePage{FormName: f.Name, Total: total, Page: page, PageSize: pageSize, Responses: []domain.Response{}}
	if total == 0 || int64(offset) >= total {
		return res, nil
	}

	items, err := s.Repo.ListResponsesPage(ctx, s.DB, publicID, offset, pageSize)
	if err != nil {
		return nil, err
	}
	res.Responses = items
	return res, nil
}

// filterPayload keeps only declared field names and enforces required fields.
// Missing required fields are reported together by label.
func filterPayload(fields []domain.FormField, payload map[string]any) (map[string]any, error) {
	if len(fields) == 0 {
		return payload, nil
	}
	clean := make(map[string]any, len(fields))
	var missing []string
	for _, f := range fields {
		v, ok := payload[f.Name]
		if ok {
			clean[f.Name] = v
		}
		if f.Required && isBlank(v) {
			missing = append(missing, f.Label)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return clean, nil
}

// isBlank reports whether a submitted value counts as absent. An unchecked
// checkbox (false) is blank.
func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case bool:
		return !x
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	default:
		return false
	}
}
