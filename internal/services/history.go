package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/cdk-backend/internal/data/repos"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/claims"
	"github.com/yungbote/cdk-backend/internal/domain/project"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

// ProjectReceipts is a creator's view of who received what from a project.
type ProjectReceipts struct {
	ProjectID           uuid.UUID           `json:"project_id"`
	Mode                project.Mode        `json:"mode"`
	TotalQuota          int64               `json:"total_quota"`
	ClaimedCount        int64               `json:"claimed_count"`
	RemainingQuota      int64               `json:"remaining_quota"`
	PendingApplications int64               `json:"pending_applications"`
	Records             []repos.ClaimRecord `json:"records"`
	Total               int64               `json:"total"`
}

type HistoryService interface {
	MyClaims(ctx context.Context, limit, offset int) ([]repos.ClaimRecord, error)
	ProjectClaims(ctx context.Context, projectID uuid.UUID, limit, offset int) (*ProjectReceipts, error)
}

type historyService struct {
	log          *logger.Logger
	stats        repos.StatsRepo
	projects     repos.ProjectRepo
	applications repos.ApplicationRepo
}

func NewHistoryService(log *logger.Logger, statsRepo repos.StatsRepo, projectRepo repos.ProjectRepo, applicationRepo repos.ApplicationRepo) HistoryService {
	return &historyService{
		log:          log.With("service", "HistoryService"),
		stats:        statsRepo,
		projects:     projectRepo,
		applications: applicationRepo,
	}
}

func (hs *historyService) MyClaims(ctx context.Context, limit, offset int) ([]repos.ClaimRecord, error) {
	rd, err := caller(ctx, "services.history.mine")
	if err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	out, err := hs.stats.UserClaims(dbctx.Context{Ctx: ctx}, rd.UserID, limit, offset)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []repos.ClaimRecord{}
	}
	return out, nil
}

func (hs *historyService) ProjectClaims(ctx context.Context, projectID uuid.UUID, limit, offset int) (*ProjectReceipts, error) {
	const op = "services.history.project"
	rd, err := caller(ctx, op)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	p, err := hs.projects.GetByID(dbc, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "project not found", nil)
	}
	if p.CreatorID != rd.UserID {
		return nil, domainagg.NewError(domainagg.CodeAuthorization, op, "only the project creator can view receipts", nil)
	}
	limit, offset = clampPage(limit, offset)
	records, total, err := hs.stats.ProjectClaims(dbc, p, limit, offset)
	if err != nil {
		return nil, err
	}
	out := &ProjectReceipts{
		ProjectID:      p.ID,
		Mode:           p.Mode,
		TotalQuota:     p.TotalQuota,
		ClaimedCount:   p.ClaimedCount,
		RemainingQuota: p.Remaining(),
		Records:        records,
		Total:          total,
	}
	if out.Records == nil {
		out.Records = []repos.ClaimRecord{}
	}
	if p.Mode == project.ModeManualApplication {
		pending, err := hs.applications.CountByProjectStatus(dbc, p.ID, claims.ApplicationPending)
		if err != nil {
			return nil, err
		}
		out.PendingApplications = pending
	}
	return out, nil
}
