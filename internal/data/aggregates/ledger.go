package aggregates

import (
	"github.com/google/uuid"

	"github.com/yungbote/cdk-backend/internal/data/repos"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/eligibility"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
)

// quotaLedger owns claimed_count. Every increment is a conditional update,
// so the count can never pass total_quota no matter how many writers race.
type quotaLedger struct {
	projects repos.ProjectRepo
}

// TryReserve takes one unit of quota. false means the quota was already
// full when the row was locked.
func (l quotaLedger) TryReserve(dbc dbctx.Context, projectID uuid.UUID) (bool, error) {
	return l.projects.ReserveQuota(dbc, projectID)
}

// Reserve is TryReserve with a full ledger reported as QuotaExhausted.
func (l quotaLedger) Reserve(dbc dbctx.Context, projectID uuid.UUID, op string) error {
	ok, err := l.TryReserve(dbc, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return eligibility.ReasonQuotaExhausted.Err(op)
	}
	return nil
}

// Recount replaces the cached count with the authoritative one derived
// from the strategy's rows.
func (l quotaLedger) Recount(dbc dbctx.Context, projectID uuid.UUID, current int64, s distributionStrategy) (domainagg.ReconcileResult, error) {
	out := domainagg.ReconcileResult{ProjectID: projectID, Before: current}
	n, err := s.Recount(dbc, projectID)
	if err != nil {
		return out, err
	}
	out.After = n
	if !out.Changed() {
		return out, nil
	}
	if err := l.projects.SetClaimedCount(dbc, projectID, n); err != nil {
		return out, err
	}
	return out, nil
}
