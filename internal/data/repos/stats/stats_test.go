package stats

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/yungbote/cdk-backend/internal/data/repos/testutil"
	types "github.com/yungbote/cdk-backend/internal/domain"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
)

func TestStatsRepoGrouping(t *testing.T) {
	db := testutil.SQLite(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewStatsRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	creator := testutil.SeedUser(t, ctx, tx)
	testutil.SeedProject(t, ctx, tx, creator.ID, types.ModeExclusivePool, 5, func(p *types.Project) {
		p.Category = "games"
		p.ClaimedCount = 4
	})
	testutil.SeedProject(t, ctx, tx, creator.ID, types.ModeSharedSecret, 5, func(p *types.Project) {
		p.Category = "games"
		p.ClaimedCount = 5
		p.IsHidden = true
	})
	testutil.SeedProject(t, ctx, tx, creator.ID, types.ModeSharedSecret, 5, func(p *types.Project) {
		p.Category = "ai"
		p.ClaimedCount = 1
	})

	byCategory, err := repo.CountProjectsBy(dbc, "category")
	if err != nil {
		t.Fatalf("CountProjectsBy: %v", err)
	}
	if len(byCategory) != 2 || byCategory[0].Key != "games" || byCategory[0].Count != 2 {
		t.Fatalf("by category: got=%+v", byCategory)
	}

	if _, err := repo.CountProjectsBy(dbc, "name; DROP TABLE project"); err == nil {
		t.Fatalf("ungroupable column should be rejected")
	}

	top, err := repo.TopProjects(dbc, 10)
	if err != nil {
		t.Fatalf("TopProjects: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("hidden projects must not rank: got=%d", len(top))
	}
	if top[0].ClaimedCount != 4 || top[1].ClaimedCount != 1 {
		t.Fatalf("ranking: got=%d,%d", top[0].ClaimedCount, top[1].ClaimedCount)
	}
}

func TestNormalizePage(t *testing.T) {
	cases := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, 20, 0},
		{50, 10, 50, 10},
		{500, -3, 20, 0},
	}
	for _, tc := range cases {
		l, o := normalizePage(tc.limit, tc.offset)
		if l != tc.wantLimit || o != tc.wantOffset {
			t.Fatalf("normalizePage(%d,%d): want=%d,%d got=%d,%d", tc.limit, tc.offset, tc.wantLimit, tc.wantOffset, l, o)
		}
	}
}

func TestStatsRepoClaimsPerDay(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewStatsRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	lateOnFirst := day.Add(23*time.Hour + 30*time.Minute)
	earlyOnSecond := day.AddDate(0, 0, 1).Add(10 * time.Minute)
	beforeWindow := day.Add(-time.Minute)

	creator := testutil.SeedUser(t, ctx, tx)
	pool := testutil.SeedProject(t, ctx, tx, creator.ID, types.ModeExclusivePool, 3)
	secret := testutil.SeedProject(t, ctx, tx, creator.ID, types.ModeSharedSecret, 5)
	manual := testutil.SeedProject(t, ctx, tx, creator.ID, types.ModeManualApplication, 5)

	for i, at := range []time.Time{lateOnFirst, beforeWindow} {
		claimer := testutil.SeedUser(t, ctx, tx).ID
		at := at
		it := &types.PoolItem{ProjectID: pool.ID, Seq: int64(i + 1), Content: fmt.Sprintf("code-%d", i), Claimed: true, ClaimerID: &claimer, ClaimedAt: &at}
		if err := tx.WithContext(ctx).Create(it).Error; err != nil {
			t.Fatalf("seed pool item: %v", err)
		}
	}
	if err := tx.WithContext(ctx).Create(&types.PoolItem{ProjectID: pool.ID, Seq: 3, Content: "unclaimed"}).Error; err != nil {
		t.Fatalf("seed pool item: %v", err)
	}
	for _, at := range []time.Time{lateOnFirst, earlyOnSecond, earlyOnSecond} {
		m := &types.Membership{ProjectID: secret.ID, ClaimerID: testutil.SeedUser(t, ctx, tx).ID, ClaimedAt: at}
		if err := tx.WithContext(ctx).Create(m).Error; err != nil {
			t.Fatalf("seed membership: %v", err)
		}
	}
	approved := testutil.SeedApplication(t, ctx, tx, manual.ID, testutil.SeedUser(t, ctx, tx).ID, types.ApplicationApproved)
	rejected := testutil.SeedApplication(t, ctx, tx, manual.ID, testutil.SeedUser(t, ctx, tx).ID, types.ApplicationRejected)
	for _, a := range []*types.Application{approved, rejected} {
		if err := tx.WithContext(ctx).Model(a).Update("processed_at", earlyOnSecond).Error; err != nil {
			t.Fatalf("process application: %v", err)
		}
	}

	got, err := repo.ClaimsPerDay(dbc, day)
	if err != nil {
		t.Fatalf("ClaimsPerDay: %v", err)
	}
	want := []DayCount{
		{Day: "2026-03-10", Count: 2},
		{Day: "2026-03-11", Count: 3},
	}
	if len(got) != len(want) {
		t.Fatalf("days: want=%+v got=%+v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("day %d: want=%+v got=%+v", i, want[i], got[i])
		}
	}
}
