package aggregates

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/claims"
	"github.com/yungbote/cdk-backend/internal/domain/project"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
)

type claimRequest struct {
	UserID   uuid.UUID
	ClientIP string
	Answers  []claims.Answer
	Now      time.Time
}

type allocation struct {
	Granted       bool
	Content       string
	ApplicationID uuid.UUID
	Status        claims.ApplicationStatus
	ClaimedAt     time.Time
}

// holding is what a user already has from a project, as seen by the read
// path. Content is set only once something was actually granted.
type holding struct {
	Claimed           bool
	Content           string
	ApplicationStatus claims.ApplicationStatus
}

// distributionStrategy is the per-mode half of a claim. The coordinator
// owns the transaction and the ledger; a strategy only reads and writes
// its own rows through the dbctx it is handed.
type distributionStrategy interface {
	Mode() project.Mode
	// ReservesOnClaim is false when quota is taken later, at approval.
	ReservesOnClaim() bool
	DuplicateCheck(dbc dbctx.Context, p *project.Project, userID uuid.UUID) (bool, error)
	Allocate(dbc dbctx.Context, p *project.Project, req claimRequest) (allocation, error)
	Holding(dbc dbctx.Context, p *project.Project, userID uuid.UUID) (holding, error)
	Recount(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
}

type strategySet map[project.Mode]distributionStrategy

func newStrategySet(deps ClaimAggregateDeps) strategySet {
	return strategySet{
		project.ModeExclusivePool: &exclusivePoolStrategy{
			items: deps.Items,
		},
		project.ModeSharedSecret: &sharedSecretStrategy{
			members:  deps.Members,
			payloads: deps.Payloads,
		},
		project.ModeManualApplication: &manualApplicationStrategy{
			applications: deps.Applications,
			questions:    deps.Questions,
			payloads:     deps.Payloads,
		},
	}
}

func (s strategySet) forProject(op string, p *project.Project) (distributionStrategy, error) {
	if p == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "project not found", nil)
	}
	st, ok := s[p.Mode]
	if !ok {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, fmt.Sprintf("unknown distribution mode %q", p.Mode), nil)
	}
	return st, nil
}
