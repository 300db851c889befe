// Package handlers exposes the REST endpoints of the form builder:
//
//   - auth:      POST /auth/register, POST /auth/login
//   - dashboard: GET /dashboard/stats, GET /dashboard/forms (ETag aware)
//   - forms:     POST /forms/create, PUT /forms/{formId}/publish,
//     GET /forms/{formId}, POST /forms/{formId}/submit,
//     GET /forms/{formId}/responses
//
// Handlers are transport-thin: they bind input, call application services
// and translate results (or sentinel errors) into HTTP responses.
package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/formflow-backend/internal/domain"
	"github.com/tbourn/formflow-backend/internal/http/middleware"
	"github.com/tbourn/formflow-backend/internal/services"
	"github.com/tbourn/formflow-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AuthService registers accounts and issues bearer tokens.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
}

// FormService covers the form lifecycle.
type FormService interface {
	// CreateIdempotent creates a draft; a repeated key replays the first result.
	CreateIdempotent(ctx context.Context, ownerID, key string, in services.CreateFormInput) (*domain.Form, bool, error)
	Publish(ctx context.Context, ownerID, publicID string) (string, error)
	GetPublic(ctx context.Context, publicID string) (*domain.Form, error)
	ListOwnerForms(ctx context.Context, ownerID string) ([]services.FormSummary, error)
	ShareURL(publicID string) string
}

// ResponseService records and lists submissions.
type ResponseService interface {
	Submit(ctx context.Context, publicID string, payload map[string]any, submitterAddress string) (*domain.Response, error)
	List(ctx context.Context, ownerID, publicID string, page, pageSize int) (*services.ResponsePage, error)
}

// DashboardService provides owner aggregates.
type DashboardService interface {
	Stats(ctx context.Context, ownerID string) (services.DashboardStats, error)
	FormsETag(ctx context.Context, ownerID string) (string, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. It depends on service interfaces only.
type Handlers struct {
	authSvc      AuthService
	formSvc      FormService
	respSvc      ResponseService
	dashboardSvc DashboardService
}

// New constructs Handlers bound to the given services.
func New(a AuthService, f FormService, r ResponseService, d DashboardService) *Handlers {
	return &Handlers{authSvc: a, formSvc: f, respSvc: r, dashboardSvc: d}
}

// ownerID returns the authenticated caller. Owner routes sit behind
// middleware.RequireAuth, so it is never empty there.
func ownerID(c *gin.Context) string { return middleware.UserID(c) }

// formID returns the trimmed :formId path parameter.
func formID(c *gin.Context) string { return strings.TrimSpace(c.Param("formId")) }

//
// Pagination
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"       example:"1"`
	PageSize   int   `json:"pageSize"   example:"50"`
	Total      int64 `json:"total"      example:"120"`
	TotalPages int   `json:"totalPages" example:"3"`
	HasNext    bool  `json:"hasNext"    example:"true"`
}

// pageQuery reads page and pageSize. Missing or malformed values become 0 and
// the service substitutes its defaults.
func pageQuery(c *gin.Context) (page, pageSize int) {
	return utils.AtoiDefault(c.Query("page"), 0), utils.AtoiDefault(c.Query("pageSize"), 0)
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}
