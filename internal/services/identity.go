package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/cdk-backend/internal/data/repos"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/user"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

type IdentitySnapshot struct {
	Username       string `json:"username"`
	IdentitySource string `json:"identity_source"`
	TrustLevel     int    `json:"trust_level"`
	RiskScore      int    `json:"risk_score"`
	Banned         bool   `json:"banned"`
}

// IdentityService receives user snapshots pushed by the identity
// subsystem. It is the only writer of user rows.
type IdentityService interface {
	Sync(ctx context.Context, userID uuid.UUID, snap IdentitySnapshot) (*user.User, error)
}

type identityService struct {
	log   *logger.Logger
	users repos.UserRepo
}

func NewIdentityService(log *logger.Logger, userRepo repos.UserRepo) IdentityService {
	return &identityService{log: log.With("service", "IdentityService"), users: userRepo}
}

func (is *identityService) Sync(ctx context.Context, userID uuid.UUID, snap IdentitySnapshot) (*user.User, error) {
	const op = "services.identity.sync"
	if userID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing user id", nil)
	}
	if snap.TrustLevel < 0 || snap.TrustLevel > 4 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "trust_level must be within 0..4", nil)
	}
	if snap.RiskScore < 0 || snap.RiskScore > 100 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "risk_score must be within 0..100", nil)
	}
	u := &user.User{
		ID:             userID,
		Username:       strings.TrimSpace(snap.Username),
		IdentitySource: strings.ToLower(strings.TrimSpace(snap.IdentitySource)),
		TrustLevel:     snap.TrustLevel,
		RiskScore:      snap.RiskScore,
		Banned:         snap.Banned,
	}
	if err := is.users.Upsert(dbctx.Context{Ctx: ctx}, u); err != nil {
		is.log.Error("user snapshot upsert failed", "user_id", userID, "error", err)
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	is.log.Debug("user snapshot synced", "user_id", userID, "banned", u.Banned)
	return u, nil
}
