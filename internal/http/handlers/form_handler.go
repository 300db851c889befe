// Form HTTP handlers.
//
// Owner endpoints (bearer token):
//   - POST /forms/create               (create a draft, Idempotency-Key aware)
//   - PUT  /forms/{formId}/publish     (draft -> published)
//   - GET  /forms/{formId}/responses   (paginated submissions)
//
// Public endpoints:
//   - GET  /forms/{formId}             (published definition)
//   - POST /forms/{formId}/submit      (anonymous submission)
//
// Unknown forms, drafts on the public surface and forms owned by someone
// else all answer 404.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/formflow-backend/internal/domain"
	"github.com/tbourn/formflow-backend/internal/http/middleware"
	"github.com/tbourn/formflow-backend/internal/services"
)

//
// DTOs
//

// CreateFormRequest is the builder's export of a new form.
type CreateFormRequest struct {
	Name        string             `json:"name"        example:"Customer Survey"`
	Description string             `json:"description" example:"Tell us how we did"`
	Icon        string             `json:"icon"        example:"file"`
	Fields      []domain.FormField `json:"fields"`
}

// CreateFormResponse identifies the created draft.
type CreateFormResponse struct {
	PublicID string            `json:"publicId" example:"9f86d081884c7d659a2feaa0c55ad015"`
	ShareURL string            `json:"shareUrl" example:"https://forms.example.com/f/9f86d081884c7d659a2feaa0c55ad015"`
	Status   domain.FormStatus `json:"status"   example:"draft"`
}

// PublishResponse carries the public link of a published form.
type PublishResponse struct {
	Message  string `json:"message"  example:"Form published"`
	ShareURL string `json:"shareUrl" example:"https://forms.example.com/f/9f86d081884c7d659a2feaa0c55ad015"`
}

// PublicFormResponse is what anonymous clients see of a form.
type PublicFormResponse struct {
	PublicID    string             `json:"publicId"    example:"9f86d081884c7d659a2feaa0c55ad015"`
	Name        string             `json:"name"        example:"Customer Survey"`
	Description string             `json:"description" example:"Tell us how we did"`
	Icon        string             `json:"icon"        example:"file"`
	Fields      []domain.FormField `json:"fields"`
}

// SubmitResponse acknowledges a stored submission.
type SubmitResponse struct {
	Message      string `json:"message"      example:"Form submitted successfully"`
	SubmissionID string `json:"submissionId" example:"3b241101-e2bb-4255-8caf-4136c566a962"`
}

// ResponseItem is one stored submission.
type ResponseItem struct {
	ID          string         `json:"id"          example:"3b241101-e2bb-4255-8caf-4136c566a962"`
	Payload     map[string]any `json:"payload"`
	SubmittedAt time.Time      `json:"submittedAt" example:"2025-08-01T10:00:00Z"`
}

// ListResponsesResponse is a page of submissions. TotalResponses is the
// full count regardless of paging.
type ListResponsesResponse struct {
	FormName       string         `json:"formName"       example:"Customer Survey"`
	TotalResponses int64          `json:"totalResponses" example:"120"`
	Responses      []ResponseItem `json:"responses"`
	Pagination     Pagination     `json:"pagination"`
}

//
// Handlers
//

// CreateForm godoc
// @ID          createForm
// @Summary     Create a form
// @Description Creates a draft form owned by the caller. With an Idempotency-Key header a retried request returns the originally created form with status 200 and Idempotency-Replayed: true.
// @Tags        Forms
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string                      false  "Client-chosen retry key"  example(3f1c2d7e-create-1)
// @Param       body             body    handlers.CreateFormRequest  true   "Form definition"
// @Success     201  {object}  handlers.CreateFormResponse
// @Success     200  {object}  handlers.CreateFormResponse  "Idempotent replay"
// @Header      200  {string}  Idempotency-Replayed  "true on replay"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid input"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /forms/create [post]
func (h *Handlers) CreateForm(c *gin.Context) {
	var req CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	f, replayed, err := h.formSvc.CreateIdempotent(c.Request.Context(), ownerID(c), key, services.CreateFormInput{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Fields:      req.Fields,
	})
	if err != nil {
		failErr(c, err)
		return
	}

	status := http.StatusCreated
	if replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
		status = http.StatusOK
	}
	ok(c, status, CreateFormResponse{
		PublicID: f.PublicID,
		ShareURL: h.formSvc.ShareURL(f.PublicID),
		Status:   f.Status,
	})
}

// PublishForm godoc
// @ID          publishForm
// @Summary     Publish a form
// @Description Moves a draft owned by the caller to published. Publishing an already published form succeeds and keeps the first publish time.
// @Tags        Forms
// @Produce     json
// @Security    BearerAuth
// @Param       formId  path  string  true  "Form public id"
// @Success     200  {object}  handlers.PublishResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Form not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /forms/{formId}/publish [put]
func (h *Handlers) PublishForm(c *gin.Context) {
	url, err := h.formSvc.Publish(c.Request.Context(), ownerID(c), formID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, PublishResponse{Message: "Form published", ShareURL: url})
}

// GetPublicForm godoc
// @ID          getPublicForm
// @Summary     Get a published form
// @Description Returns the definition of a published form. Drafts and unknown ids answer 404.
// @Tags        Forms
// @Produce     json
// @Param       formId  path  string  true  "Form public id"
// @Success     200  {object}  handlers.PublicFormResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Form not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /forms/{formId} [get]
func (h *Handlers) GetPublicForm(c *gin.Context) {
	f, err := h.formSvc.GetPublic(c.Request.Context(), formID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	fields := f.Fields
	if fields == nil {
		fields = []domain.FormField{}
	}
	ok(c, http.StatusOK, PublicFormResponse{
		PublicID:    f.PublicID,
		Name:        f.Name,
		Description: f.Description,
		Icon:        f.Icon,
		Fields:      fields,
	})
}

// SubmitForm godoc
// @ID          submitForm
// @Summary     Submit a response
// @Description Stores an anonymous submission against a published form. The body is a JSON object mapping field names to values. When the form declares fields, unknown keys are dropped and required fields must be present.
// @Tags        Forms
// @Accept      json
// @Produce     json
// @Param       formId  path  string          true  "Form public id"
// @Param       body    body  object  true  "Field values"
// @Success     200  {object}  handlers.SubmitResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload or missing required fields"
// @Failure     404  {object}  handlers.ErrorResponse  "Form not found"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /forms/{formId}/submit [post]
func (h *Handlers) SubmitForm(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be a JSON object")
		return
	}
	r, err := h.respSvc.Submit(c.Request.Context(), formID(c), payload, c.ClientIP())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SubmitResponse{Message: "Form submitted successfully", SubmissionID: r.ID})
}

// ListResponses godoc
// @ID          listResponses
// @Summary     List responses
// @Description Returns a page of submissions for a form owned by the caller, newest first.
// @Tags        Forms
// @Produce     json
// @Security    BearerAuth
// @Param       formId    path   string  true   "Form public id"
// @Param       page      query  int     false  "Page number"     minimum(1) default(1)
// @Param       pageSize  query  int     false  "Items per page"  minimum(1) maximum(200) default(50)
// @Success     200  {object}  handlers.ListResponsesResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Form not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /forms/{formId}/responses [get]
func (h *Handlers) ListResponses(c *gin.Context) {
	page, pageSize := pageQuery(c)
	p, err := h.respSvc.List(c.Request.Context(), ownerID(c), formID(c), page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}

	items := make([]ResponseItem, 0, len(p.Responses))
	for _, r := range p.Responses {
		items = append(items, ResponseItem{ID: r.ID, Payload: r.Payload, SubmittedAt: r.SubmittedAt})
	}
	ok(c, http.StatusOK, ListResponsesResponse{
		FormName:       p.FormName,
		TotalResponses: p.Total,
		Responses:      items,
		Pagination:     newPagination(p.Page, p.PageSize, p.Total),
	})
}
