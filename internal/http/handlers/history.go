package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/cdk-backend/internal/http/response"
	"github.com/yungbote/cdk-backend/internal/services"
)

type HistoryHandler struct {
	history services.HistoryService
	stats   services.StatsService
}

func NewHistoryHandler(historyService services.HistoryService, statsService services.StatsService) *HistoryHandler {
	return &HistoryHandler{history: historyService, stats: statsService}
}

// GET /api/me/claims?page=&size=
func (h *HistoryHandler) MyClaims(c *gin.Context) {
	limit, offset := page(c)
	records, err := h.history.MyClaims(c.Request.Context(), limit, offset)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"claims": records})
}

// GET /api/stats?days=
func (h *HistoryHandler) Dashboard(c *gin.Context) {
	out, err := h.stats.Dashboard(c.Request.Context(), intQuery(c, "days", 0))
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, out)
}
