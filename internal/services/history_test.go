package services

import (
	"context"
	"testing"

	"github.com/yungbote/cdk-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/claims"
	"github.com/yungbote/cdk-backend/internal/domain/project"
)

func TestHistoryServiceAcrossModes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	creator, u := f.user(t), f.user(t)

	pool := testutil.SeedProject(t, ctx, f.db, creator.ID, project.ModeExclusivePool, 1)
	testutil.SeedPoolItems(t, ctx, f.db, pool.ID, "POOL-1")
	secret := testutil.SeedProject(t, ctx, f.db, creator.ID, project.ModeSharedSecret, 5)
	testutil.SeedSharedPayload(t, ctx, f.db, secret.ID, "SECRET-1")
	manual := testutil.SeedProject(t, ctx, f.db, creator.ID, project.ModeManualApplication, 5)
	testutil.SeedQuestions(t, ctx, f.db, manual.ID, "Why?")

	claimSvc := f.claimService(noLimits())
	for _, req := range []ClaimRequest{
		{ProjectID: pool.ID},
		{ProjectID: secret.ID},
		{ProjectID: manual.ID, Answers: []claims.Answer{{Answer: "please"}}},
	} {
		if _, err := claimSvc.Claim(as(u, ""), req); err != nil {
			t.Fatalf("claim %s: %v", req.ProjectID, err)
		}
	}

	svc := NewHistoryService(f.log, f.stats, f.projects, f.applications)
	mine, err := svc.MyClaims(as(u, ""), 0, 0)
	if err != nil {
		t.Fatalf("my claims: %v", err)
	}
	if len(mine) != 3 {
		t.Fatalf("my claims: want=3 got=%d", len(mine))
	}
	byMode := map[project.Mode]string{}
	for _, rec := range mine {
		byMode[rec.Mode] = rec.Content
		if rec.Mode == project.ModeManualApplication && rec.Status != claims.ApplicationPending {
			t.Fatalf("application status: %s", rec.Status)
		}
	}
	if byMode[project.ModeExclusivePool] != "POOL-1" || byMode[project.ModeSharedSecret] != "SECRET-1" || byMode[project.ModeManualApplication] != "" {
		t.Fatalf("contents by mode: %+v", byMode)
	}

	_, err = svc.ProjectClaims(as(u, ""), pool.ID, 0, 0)
	requireCode(t, err, domainagg.CodeAuthorization)

	receipts, err := svc.ProjectClaims(as(creator, ""), pool.ID, 0, 0)
	if err != nil {
		t.Fatalf("pool receipts: %v", err)
	}
	if receipts.Total != 1 || receipts.ClaimedCount != 1 || receipts.RemainingQuota != 0 || receipts.Records[0].ClaimerID != u.ID {
		t.Fatalf("pool receipts: %+v", receipts)
	}

	manualReceipts, err := svc.ProjectClaims(as(creator, ""), manual.ID, 0, 0)
	if err != nil {
		t.Fatalf("manual receipts: %v", err)
	}
	if manualReceipts.PendingApplications != 1 || manualReceipts.Total != 0 {
		t.Fatalf("manual receipts: %+v", manualReceipts)
	}
}
