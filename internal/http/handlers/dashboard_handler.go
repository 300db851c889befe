// Dashboard HTTP handlers.
//
//   - GET /dashboard/stats  (form and response totals)
//   - GET /dashboard/forms  (owner's forms, newest first, weak ETag)
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/formflow-backend/internal/domain"
	"github.com/tbourn/formflow-backend/internal/http/middleware"
)

// DashboardStatsResponse holds the owner's totals.
type DashboardStatsResponse struct {
	TotalForms     int64 `json:"totalForms"     example:"3"`
	TotalResponses int64 `json:"totalResponses" example:"42"`
}

// FormListItem is one row of the dashboard form list. ID is the public id.
type FormListItem struct {
	ID        string            `json:"id"        example:"9f86d081884c7d659a2feaa0c55ad015"`
	Name      string            `json:"name"      example:"Customer Survey"`
	Status    domain.FormStatus `json:"status"    example:"published"`
	Icon      string            `json:"icon"      example:"file"`
	Responses int64             `json:"responses" example:"12"`
	CreatedAt time.Time         `json:"createdAt" example:"2025-08-01T10:00:00Z"`
}

// DashboardStats godoc
// @ID          dashboardStats
// @Summary     Dashboard totals
// @Description Counts the caller's forms and the responses across them.
// @Tags        Dashboard
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.DashboardStatsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /dashboard/stats [get]
func (h *Handlers) DashboardStats(c *gin.Context) {
	st, err := h.dashboardSvc.Stats(c.Request.Context(), ownerID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, DashboardStatsResponse{TotalForms: st.TotalForms, TotalResponses: st.TotalResponses})
}

// DashboardForms godoc
// @ID          dashboardForms
// @Summary     List the caller's forms
// @Description Returns the caller's forms newest first with response counts. Supports a weak ETag via If-None-Match and may return 304.
// @Tags        Dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {array}   handlers.FormListItem
// @Header      200  {string}  ETag  "Weak ETag for the current list"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /dashboard/forms [get]
func (h *Handlers) DashboardForms(c *gin.Context) {
	ctx := c.Request.Context()
	uid := ownerID(c)
	c.Header("Cache-Control", "private, no-cache")

	// ETag pre-check is best effort; the list is served without one on error.
	if etag, err := h.dashboardSvc.FormsETag(ctx, uid); err == nil {
		c.Header("ETag", etag)
		if etagMatches(c.GetHeader("If-None-Match"), etag) {
			c.Status(http.StatusNotModified)
			return
		}
	} else {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("forms etag")
	}

	forms, err := h.formSvc.ListOwnerForms(ctx, uid)
	if err != nil {
		failErr(c, err)
		return
	}
	items := make([]FormListItem, 0, len(forms))
	for _, f := range forms {
		items = append(items, FormListItem{
			ID:        f.PublicID,
			Name:      f.Name,
			Status:    f.Status,
			Icon:      f.Icon,
			Responses: f.Responses,
			CreatedAt: f.CreatedAt,
		})
	}
	ok(c, http.StatusOK, items)
}

// etagMatches implements If-None-Match list matching with weak comparison.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}
