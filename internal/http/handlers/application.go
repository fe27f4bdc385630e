package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/cdk-backend/internal/domain/claims"
	"github.com/yungbote/cdk-backend/internal/http/response"
	"github.com/yungbote/cdk-backend/internal/services"
)

type ApplicationHandler struct {
	applications services.ApplicationService
}

func NewApplicationHandler(applicationService services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applicationService}
}

// POST /api/applications/:id/resolve
// body: { "decision": "approved" | "rejected" }
func (h *ApplicationHandler) Resolve(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	var req struct {
		Decision string `json:"decision"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAggregateError(c, invalidBody(err))
		return
	}
	app, err := h.applications.Resolve(c.Request.Context(), id, claims.Decision(req.Decision))
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"id":           app.ID,
		"project_id":   app.ProjectID,
		"status":       app.Status,
		"processed_at": app.ProcessedAt,
	})
}

// GET /api/projects/:id/applications?status=&page=&size=
func (h *ApplicationHandler) ListByProject(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	limit, offset := page(c)
	out, err := h.applications.ListByProject(c.Request.Context(), id, claims.ApplicationStatus(c.Query("status")), limit, offset)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, out)
}
