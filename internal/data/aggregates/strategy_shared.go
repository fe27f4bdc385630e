package aggregates

import (
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/cdk-backend/internal/data/repos"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/claims"
	"github.com/yungbote/cdk-backend/internal/domain/project"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
)

// sharedSecretStrategy gives every member the same payload. Membership is
// the claim; the unique (project, claimer) index is what stops a second
// one.
type sharedSecretStrategy struct {
	members  repos.MembershipRepo
	payloads repos.SharedPayloadRepo
}

func (s *sharedSecretStrategy) Mode() project.Mode { return project.ModeSharedSecret }

func (s *sharedSecretStrategy) ReservesOnClaim() bool { return true }

func (s *sharedSecretStrategy) DuplicateCheck(dbc dbctx.Context, p *project.Project, userID uuid.UUID) (bool, error) {
	m, err := s.members.GetByProjectAndUser(dbc, p.ID, userID)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

func (s *sharedSecretStrategy) Allocate(dbc dbctx.Context, p *project.Project, req claimRequest) (allocation, error) {
	const op = "Claims.SharedSecret.Allocate"
	content, err := s.content(dbc, p.ID)
	if err != nil {
		return allocation{}, err
	}
	if content == "" {
		return allocation{}, domainagg.NewError(domainagg.CodeInternal, op, "shared payload missing for project", nil)
	}
	m := &claims.Membership{
		ProjectID: p.ID,
		ClaimerID: req.UserID,
		ClaimerIP: strings.TrimSpace(req.ClientIP),
		ClaimedAt: req.Now,
	}
	if err := s.members.Create(dbc, m); err != nil {
		if IsUniqueViolation(err) {
			return allocation{}, domainagg.NewError(domainagg.CodeDuplicateClaim, op, "user is already a member of this project", err)
		}
		return allocation{}, err
	}
	return allocation{
		Granted:   true,
		Content:   content,
		ClaimedAt: req.Now,
	}, nil
}

func (s *sharedSecretStrategy) Holding(dbc dbctx.Context, p *project.Project, userID uuid.UUID) (holding, error) {
	m, err := s.members.GetByProjectAndUser(dbc, p.ID, userID)
	if err != nil || m == nil {
		return holding{}, err
	}
	content, err := s.content(dbc, p.ID)
	if err != nil {
		return holding{}, err
	}
	return holding{Claimed: true, Content: content}, nil
}

func (s *sharedSecretStrategy) Recount(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	return s.members.CountByProject(dbc, projectID)
}

func (s *sharedSecretStrategy) content(dbc dbctx.Context, projectID uuid.UUID) (string, error) {
	sp, err := s.payloads.GetByProject(dbc, projectID)
	if err != nil || sp == nil {
		return "", err
	}
	return sp.Content, nil
}
