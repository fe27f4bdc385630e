package aggregates_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/cdk-backend/internal/data/aggregates"
	aggtestutil "github.com/yungbote/cdk-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/cdk-backend/internal/data/repos"
	"github.com/yungbote/cdk-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/project"
	"github.com/yungbote/cdk-backend/internal/domain/user"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
)

const reportHideThreshold = 2

type harness struct {
	ctx      context.Context
	db       *gorm.DB
	hooks    *aggtestutil.HooksRecorder
	claims   domainagg.ClaimAggregate
	projects domainagg.ProjectAggregate
	repo     repos.ProjectRepo
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithRunner(t, nil)
}

// newHarnessWithRunner lets a test wrap the real transaction runner, for
// example with a FaultyTxRunner.
func newHarnessWithRunner(t *testing.T, wrap func(aggregates.TxRunner) aggregates.TxRunner) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	hooks := &aggtestutil.HooksRecorder{}
	base := aggregates.BaseDeps{DB: db, Log: log, Hooks: hooks}
	if wrap != nil {
		base.Runner = wrap(aggregates.NewGormTxRunner(db))
	}

	projects := repos.NewProjectRepo(db, log)
	payloads := repos.NewSharedPayloadRepo(db, log)
	questions := repos.NewQuestionRepo(db, log)
	items := repos.NewPoolItemRepo(db, log)
	members := repos.NewMembershipRepo(db, log)
	applications := repos.NewApplicationRepo(db, log)

	return &harness{
		ctx:   context.Background(),
		db:    db,
		hooks: hooks,
		claims: aggregates.NewClaimAggregate(aggregates.ClaimAggregateDeps{
			Base:           base,
			Projects:       projects,
			Payloads:       payloads,
			Questions:      questions,
			Items:          items,
			Members:        members,
			Applications:   applications,
			Users:          repos.NewUserRepo(db, log),
			VerifiedSource: testutil.VerifiedSource,
		}),
		projects: aggregates.NewProjectAggregate(aggregates.ProjectAggregateDeps{
			Base:         base,
			Projects:     projects,
			Payloads:     payloads,
			Questions:    questions,
			Items:        items,
			Applications: applications,
			Reports:      repos.NewReportRepo(db, log),

			ReportHideThreshold: reportHideThreshold,
		}),
		repo: projects,
	}
}

func (h *harness) user(t *testing.T, mutate ...func(*user.User)) *user.User {
	t.Helper()
	return testutil.SeedUser(t, h.ctx, h.db, mutate...)
}

func (h *harness) users(t *testing.T, n int) []*user.User {
	t.Helper()
	out := make([]*user.User, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, h.user(t))
	}
	return out
}

func (h *harness) reload(t *testing.T, id uuid.UUID) *project.Project {
	t.Helper()
	p, err := h.repo.GetByID(dbctx.Context{Ctx: h.ctx}, id)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if p == nil {
		t.Fatalf("project %s not found", id)
	}
	return p
}

func (h *harness) claim(t *testing.T, p *project.Project, u *user.User) (domainagg.ClaimResult, error) {
	t.Helper()
	return h.claims.Claim(h.ctx, domainagg.ClaimInput{
		ProjectID: p.ID,
		UserID:    u.ID,
		ClientIP:  "203.0.113.7",
		Now:       time.Now().UTC(),
	})
}

func requireCode(t *testing.T, err error, want domainagg.ErrorCode) {
	t.Helper()
	if got := domainagg.CodeOf(err); got != want {
		t.Fatalf("error code: want=%s got=%s (%v)", want, got, err)
	}
}
