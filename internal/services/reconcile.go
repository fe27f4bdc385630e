package services

import (
	"context"
	"time"

	"github.com/yungbote/cdk-backend/internal/data/repos"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

type ReconcileReport struct {
	Projects int   `json:"projects"`
	Drifted  int   `json:"drifted"`
	Failed   int   `json:"failed"`
	Expired  int64 `json:"expired"`
}

// ReconcileService repairs claimed_count drift and expires projects whose
// end time has passed.
type ReconcileService interface {
	Run(ctx context.Context) (ReconcileReport, error)
}

type reconcileService struct {
	log      *logger.Logger
	claims   domainagg.ClaimAggregate
	projects repos.ProjectRepo
	now      func() time.Time
}

func NewReconcileService(log *logger.Logger, claimAgg domainagg.ClaimAggregate, projectRepo repos.ProjectRepo) ReconcileService {
	return &reconcileService{
		log:      log.With("service", "ReconcileService"),
		claims:   claimAgg,
		projects: projectRepo,
		now:      time.Now,
	}
}

func (rs *reconcileService) Run(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	dbc := dbctx.Context{Ctx: ctx}
	ids, err := rs.projects.ListIDs(dbc)
	if err != nil {
		return report, err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Projects++
		res, err := rs.claims.Reconcile(ctx, id)
		if err != nil {
			// One bad project must not stall the sweep.
			report.Failed++
			rs.log.Error("reconcile project failed", "project_id", id, "error", err)
			continue
		}
		if res.Changed() {
			report.Drifted++
		}
	}
	expired, err := rs.projects.ExpireEnded(dbc, rs.now())
	if err != nil {
		return report, err
	}
	report.Expired = expired
	rs.log.Info("reconcile finished",
		"projects", report.Projects,
		"drifted", report.Drifted,
		"failed", report.Failed,
		"expired", report.Expired,
	)
	return report, nil
}
