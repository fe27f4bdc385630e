package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/project"
	"github.com/yungbote/cdk-backend/internal/http/response"
	"github.com/yungbote/cdk-backend/internal/services"
)

type ProjectHandler struct {
	projects services.ProjectService
	history  services.HistoryService
}

func NewProjectHandler(projectService services.ProjectService, historyService services.HistoryService) *ProjectHandler {
	return &ProjectHandler{projects: projectService, history: historyService}
}

type createProjectRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Mode        string     `json:"mode"`
	TotalQuota  int64      `json:"total_quota"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	IsHidden    bool       `json:"is_hidden"`
	Password    string     `json:"password"`

	RequiresVerifiedIdentity bool  `json:"requires_verified_identity"`
	MinTrustLevel            int   `json:"min_trust_level"`
	MinRiskScore             int   `json:"min_risk_score"`
	AllowSameIP              *bool `json:"allow_same_ip"`

	Items         []string `json:"items"`
	SharedPayload string   `json:"shared_payload"`
	Questions     []string `json:"questions"`
}

func (r createProjectRequest) input() domainagg.CreateProjectInput {
	in := domainagg.CreateProjectInput{
		Name:                     r.Name,
		Description:              r.Description,
		Category:                 r.Category,
		Mode:                     project.Mode(r.Mode),
		TotalQuota:               r.TotalQuota,
		EndTime:                  r.EndTime,
		IsHidden:                 r.IsHidden,
		Password:                 r.Password,
		RequiresVerifiedIdentity: r.RequiresVerifiedIdentity,
		MinTrustLevel:            r.MinTrustLevel,
		MinRiskScore:             r.MinRiskScore,
		AllowSameIP:              true,
		Items:                    r.Items,
		SharedPayload:            r.SharedPayload,
		Questions:                r.Questions,
	}
	if r.StartTime != nil {
		in.StartTime = *r.StartTime
	}
	if r.AllowSameIP != nil {
		in.AllowSameIP = *r.AllowSameIP
	}
	return in
}

// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAggregateError(c, invalidBody(err))
		return
	}
	res, err := h.projects.Create(c.Request.Context(), req.input())
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"project":       res.Project,
		"items_skipped": res.ItemsSkipped,
	})
}

// GET /api/projects?category=&mode=&status=&mine=&page=&size=
func (h *ProjectHandler) List(c *gin.Context) {
	limit, offset := page(c)
	out, err := h.projects.List(c.Request.Context(), services.ProjectListQuery{
		Category: c.Query("category"),
		Mode:     project.Mode(c.Query("mode")),
		Status:   project.Status(c.Query("status")),
		Mine:     c.Query("mine") == "true" || c.Query("mine") == "1",
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	detail, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

// PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	var req struct {
		Name          *string    `json:"name"`
		Description   *string    `json:"description"`
		Category      *string    `json:"category"`
		Mode          *string    `json:"mode"`
		TotalQuota    *int64     `json:"total_quota"`
		StartTime     *time.Time `json:"start_time"`
		EndTime       *time.Time `json:"end_time"`
		ClearEnd      bool       `json:"clear_end_time"`
		IsHidden      *bool      `json:"is_hidden"`
		Status        *string    `json:"status"`
		Password      *string    `json:"password"`
		ClearPassword bool       `json:"clear_password"`

		RequiresVerifiedIdentity *bool `json:"requires_verified_identity"`
		MinTrustLevel            *int  `json:"min_trust_level"`
		MinRiskScore             *int  `json:"min_risk_score"`
		AllowSameIP              *bool `json:"allow_same_ip"`

		SharedPayload *string `json:"shared_payload"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAggregateError(c, invalidBody(err))
		return
	}
	in := domainagg.UpdateProjectInput{
		ProjectID:                id,
		Name:                     req.Name,
		Description:              req.Description,
		Category:                 req.Category,
		TotalQuota:               req.TotalQuota,
		StartTime:                req.StartTime,
		EndTime:                  req.EndTime,
		ClearEnd:                 req.ClearEnd,
		IsHidden:                 req.IsHidden,
		Password:                 req.Password,
		ClearPassword:            req.ClearPassword,
		RequiresVerifiedIdentity: req.RequiresVerifiedIdentity,
		MinTrustLevel:            req.MinTrustLevel,
		MinRiskScore:             req.MinRiskScore,
		AllowSameIP:              req.AllowSameIP,
		SharedPayload:            req.SharedPayload,
	}
	if req.Mode != nil {
		m := project.Mode(*req.Mode)
		in.Mode = &m
	}
	if req.Status != nil {
		s := project.Status(*req.Status)
		in.Status = &s
	}
	p, err := h.projects.Update(c.Request.Context(), in)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// POST /api/projects/:id/items
// body: { "items": ["...", "..."] }
func (h *ProjectHandler) ImportItems(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	var req struct {
		Items []string `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAggregateError(c, invalidBody(err))
		return
	}
	res, err := h.projects.ImportItems(c.Request.Context(), id, req.Items)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"inserted":    res.Inserted,
		"skipped":     res.Skipped,
		"total_quota": res.TotalQuota,
	})
}

// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	if err := h.projects.Delete(c.Request.Context(), id); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

// POST /api/projects/:id/report
// body: { "reason": "..." }
func (h *ProjectHandler) Report(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAggregateError(c, invalidBody(err))
		return
	}
	res, err := h.projects.Report(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"project_id":   res.ProjectID,
		"report_count": res.ReportCount,
		"hidden":       res.Hidden,
	})
}

// GET /api/projects/:id/claims?page=&size=
func (h *ProjectHandler) Receipts(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	limit, offset := page(c)
	out, err := h.history.ProjectClaims(c.Request.Context(), id, limit, offset)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, out)
}
