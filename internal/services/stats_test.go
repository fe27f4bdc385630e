package services

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/cdk-backend/internal/data/repos"
	"github.com/yungbote/cdk-backend/internal/data/repos/testutil"
	"github.com/yungbote/cdk-backend/internal/domain/project"
)

func TestClampDays(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 30},
		{-4, 30},
		{7, 7},
		{90, 90},
		{365, 90},
	}
	for _, tc := range cases {
		if got := clampDays(tc.in); got != tc.want {
			t.Fatalf("clampDays(%d): want=%d got=%d", tc.in, tc.want, got)
		}
	}
}

func TestBucketDailyFillsGaps(t *testing.T) {
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	perDay := []repos.DayCount{
		{Day: "2026-02-28", Count: 4}, // before the window
		{Day: "2026-03-01", Count: 2},
		{Day: "2026-03-03", Count: 1},
		{Day: "2026-03-10", Count: 7}, // after the window
	}
	got := bucketDaily(perDay, since, 3)
	want := []DailyCount{
		{Date: "2026-03-01", Count: 2},
		{Date: "2026-03-02", Count: 0},
		{Date: "2026-03-03", Count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("len: want=%d got=%d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("day %d: want=%+v got=%+v", i, want[i], got[i])
		}
	}
}

func TestStatsServiceDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	creator, a, b := f.user(t), f.user(t), f.user(t)
	secret := testutil.SeedProject(t, ctx, f.db, creator.ID, project.ModeSharedSecret, 10, func(p *project.Project) {
		p.Category = "ai"
	})
	testutil.SeedSharedPayload(t, ctx, f.db, secret.ID, "SECRET")
	testutil.SeedProject(t, ctx, f.db, creator.ID, project.ModeManualApplication, 3, func(p *project.Project) {
		p.Status = project.StatusPaused
	})

	claimSvc := f.claimService(noLimits())
	for _, rctx := range []context.Context{as(a, ""), as(b, "")} {
		if _, err := claimSvc.Claim(rctx, ClaimRequest{ProjectID: secret.ID}); err != nil {
			t.Fatalf("claim: %v", err)
		}
	}

	svc := NewStatsService(f.log, f.stats)
	dash, err := svc.Dashboard(ctx, 7)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.Days != 7 || len(dash.Trend) != 7 {
		t.Fatalf("trend window: days=%d len=%d", dash.Days, len(dash.Trend))
	}
	if last := dash.Trend[len(dash.Trend)-1]; last.Count != 2 || last.Date != time.Now().UTC().Format(time.DateOnly) {
		t.Fatalf("today bucket: %+v", last)
	}
	groups := map[string]int64{}
	for _, g := range dash.ByCategory {
		groups["category:"+g.Key] = g.Count
	}
	for _, g := range dash.ByStatus {
		groups["status:"+g.Key] = g.Count
	}
	if groups["category:ai"] != 1 || groups["category:other"] != 1 || groups["status:paused"] != 1 {
		t.Fatalf("groups: %+v", groups)
	}
	if len(dash.TopProjects) == 0 || dash.TopProjects[0].ID != secret.ID {
		t.Fatalf("top projects: %+v", dash.TopProjects)
	}
}
