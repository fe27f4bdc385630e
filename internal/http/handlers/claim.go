package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cdk-backend/internal/domain/claims"
	"github.com/yungbote/cdk-backend/internal/http/response"
	"github.com/yungbote/cdk-backend/internal/platform/apierr"
	"github.com/yungbote/cdk-backend/internal/services"
)

type ClaimHandler struct {
	claims services.ClaimService
}

func NewClaimHandler(claimService services.ClaimService) *ClaimHandler {
	return &ClaimHandler{claims: claimService}
}

// GET /api/projects/:id/eligibility
func (h *ClaimHandler) Eligibility(c *gin.Context) {
	projectID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	res, err := h.claims.Eligibility(c.Request.Context(), projectID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	body := gin.H{
		"project_id":      res.ProjectID,
		"mode":            res.Mode,
		"already_claimed": res.AlreadyClaimed,
		"can_claim":       res.CanClaim,
		"remaining_quota": res.RemainingQuota,
		"needs_password":  res.NeedsPassword,
	}
	if res.FailingReason != "" {
		body["failing_reason"] = res.FailingReason
	}
	if res.Content != "" {
		body["content"] = res.Content
	}
	if res.ApplicationStatus != "" {
		body["application_status"] = res.ApplicationStatus
	}
	response.RespondOK(c, body)
}

// POST /api/projects/:id/claim
// body: { "password": "...", "answers": [{"question": "...", "answer": "..."}] }
func (h *ClaimHandler) Claim(c *gin.Context) {
	projectID, err := uuidParam(c, "id")
	if err != nil {
		claimFailure(c, err)
		return
	}
	var req struct {
		Password string          `json:"password"`
		Answers  []claims.Answer `json:"answers"`
	}
	// An empty body is a plain claim.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		claimFailure(c, invalidBody(err))
		return
	}
	res, err := h.claims.Claim(c.Request.Context(), services.ClaimRequest{
		ProjectID: projectID,
		Password:  req.Password,
		Answers:   req.Answers,
	})
	if err != nil {
		claimFailure(c, err)
		return
	}
	if !res.Granted {
		c.JSON(http.StatusAccepted, gin.H{
			"granted":        false,
			"status":         res.Status,
			"application_id": res.ApplicationID,
		})
		return
	}
	response.RespondOK(c, gin.H{
		"granted":    true,
		"content":    res.Content,
		"claimed_at": res.ClaimedAt,
	})
}

func claimFailure(c *gin.Context, err error) {
	apiErr := apierr.From(err)
	_ = c.Error(err)
	body := gin.H{
		"granted":    false,
		"error_kind": apiErr.Code,
		"message":    apiErr.PublicMessage(),
	}
	if apiErr.Reason != "" {
		body["reason"] = apiErr.Reason
	}
	c.JSON(apiErr.Status, body)
}
