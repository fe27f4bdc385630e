package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/cdk-backend/internal/http/response"
	"github.com/yungbote/cdk-backend/internal/services"
)

type IdentityHandler struct {
	identity services.IdentityService
}

func NewIdentityHandler(identityService services.IdentityService) *IdentityHandler {
	return &IdentityHandler{identity: identityService}
}

// PUT /internal/users/:id
func (h *IdentityHandler) Sync(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	var snap services.IdentitySnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		response.RespondAggregateError(c, invalidBody(err))
		return
	}
	u, err := h.identity.Sync(c.Request.Context(), id, snap)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}
