package aggregates

import (
	"github.com/google/uuid"

	"github.com/yungbote/cdk-backend/internal/data/repos"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/project"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
)

// exclusivePoolStrategy hands each claimer one distinct pool item, oldest
// first. An item moves from unclaimed to claimed exactly once.
type exclusivePoolStrategy struct {
	items repos.PoolItemRepo
}

func (s *exclusivePoolStrategy) Mode() project.Mode { return project.ModeExclusivePool }

func (s *exclusivePoolStrategy) ReservesOnClaim() bool { return true }

func (s *exclusivePoolStrategy) DuplicateCheck(dbc dbctx.Context, p *project.Project, userID uuid.UUID) (bool, error) {
	it, err := s.items.GetClaimedByUser(dbc, p.ID, userID)
	if err != nil {
		return false, err
	}
	return it != nil, nil
}

func (s *exclusivePoolStrategy) Allocate(dbc dbctx.Context, p *project.Project, req claimRequest) (allocation, error) {
	const op = "Claims.ExclusivePool.Allocate"
	it, err := s.items.LockNextAvailable(dbc, p.ID)
	if err != nil {
		return allocation{}, err
	}
	if it == nil {
		return allocation{}, domainagg.NewError(domainagg.CodeNoItemAvailable, op, "no unclaimed item left in pool", nil)
	}
	ok, err := s.items.MarkClaimed(dbc, it.ID, req.UserID, req.Now)
	if err != nil {
		if IsUniqueViolation(err) {
			return allocation{}, domainagg.NewError(domainagg.CodeDuplicateClaim, op, "user already holds an item from this project", err)
		}
		return allocation{}, err
	}
	if !ok {
		// The row lock makes this unreachable on Postgres; treat it as a
		// transient race so the caller can retry.
		return allocation{}, RetryableError("pool item claimed concurrently")
	}
	return allocation{
		Granted:   true,
		Content:   it.Content,
		ClaimedAt: req.Now,
	}, nil
}

func (s *exclusivePoolStrategy) Holding(dbc dbctx.Context, p *project.Project, userID uuid.UUID) (holding, error) {
	it, err := s.items.GetClaimedByUser(dbc, p.ID, userID)
	if err != nil || it == nil {
		return holding{}, err
	}
	return holding{Claimed: true, Content: it.Content}, nil
}

func (s *exclusivePoolStrategy) Recount(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	_, claimed, err := s.items.Counts(dbc, projectID)
	return claimed, err
}
