package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/platform/apierr"
	"github.com/yungbote/cdk-backend/internal/platform/ctxutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	timeLayout = time.RFC3339
)

// caller returns the authenticated request data or an authorization error.
func caller(ctx context.Context, op string) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeAuthorization, op, "authentication required", nil)
	}
	return rd, nil
}

func rateLimited(op string) error {
	return apierr.New(http.StatusTooManyRequests, "rate_limited", fmt.Errorf("%s: too many requests", op))
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
