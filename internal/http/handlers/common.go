package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
)

func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, domainagg.NewError(domainagg.CodeValidation, "handlers", fmt.Sprintf("invalid %s", name), nil)
	}
	return id, nil
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// page reads ?page= (1-based) and ?size= into limit/offset.
func page(c *gin.Context) (int, int) {
	size := intQuery(c, "size", 20)
	p := intQuery(c, "page", 1)
	if p < 1 {
		p = 1
	}
	if size < 1 {
		size = 20
	}
	return size, (p - 1) * size
}

func invalidBody(err error) error {
	return domainagg.NewError(domainagg.CodeValidation, "handlers", "invalid request body: "+err.Error(), nil)
}
