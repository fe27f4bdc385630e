package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/cdk-backend/internal/data/aggregates"
	"github.com/yungbote/cdk-backend/internal/data/repos"
	"github.com/yungbote/cdk-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/user"
	"github.com/yungbote/cdk-backend/internal/platform/ctxutil"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

type fixture struct {
	db           *gorm.DB
	log          *logger.Logger
	limiter      Limiter
	projects     repos.ProjectRepo
	questions    repos.QuestionRepo
	applications repos.ApplicationRepo
	users        repos.UserRepo
	stats        repos.StatsRepo
	claimAgg     domainagg.ClaimAggregate
	projectAgg   domainagg.ProjectAggregate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SQLite(t)
	log := logger.Nop()
	base := aggregates.BaseDeps{DB: db, Log: log}

	f := &fixture{
		db:           db,
		log:          log,
		limiter:      NewMemoryLimiter(),
		projects:     repos.NewProjectRepo(db, log),
		questions:    repos.NewQuestionRepo(db, log),
		applications: repos.NewApplicationRepo(db, log),
		users:        repos.NewUserRepo(db, log),
		stats:        repos.NewStatsRepo(db, log),
	}
	payloads := repos.NewSharedPayloadRepo(db, log)
	items := repos.NewPoolItemRepo(db, log)
	f.claimAgg = aggregates.NewClaimAggregate(aggregates.ClaimAggregateDeps{
		Base:           base,
		Projects:       f.projects,
		Payloads:       payloads,
		Questions:      f.questions,
		Items:          items,
		Members:        repos.NewMembershipRepo(db, log),
		Applications:   f.applications,
		Users:          f.users,
		VerifiedSource: testutil.VerifiedSource,
	})
	f.projectAgg = aggregates.NewProjectAggregate(aggregates.ProjectAggregateDeps{
		Base:         base,
		Projects:     f.projects,
		Payloads:     payloads,
		Questions:    f.questions,
		Items:        items,
		Applications: f.applications,
		Reports:      repos.NewReportRepo(db, log),

		ReportHideThreshold: 2,
	})
	return f
}

func (f *fixture) claimService(limits ClaimLimits) ClaimService {
	return NewClaimService(f.log, f.claimAgg, f.projects, f.users, f.limiter, NewSanitizer(), limits)
}

func (f *fixture) projectService(limits ClaimLimits) ProjectService {
	return NewProjectService(f.log, f.projectAgg, f.projects, f.questions, f.limiter, NewSanitizer(), limits)
}

func (f *fixture) user(t *testing.T, mutate ...func(*user.User)) *user.User {
	t.Helper()
	return testutil.SeedUser(t, context.Background(), f.db, mutate...)
}

// as returns a request context authenticated as u, calling from ip.
func as(u *user.User, ip string) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID:   u.ID,
		Username: u.Username,
		ClientIP: ip,
	})
}

func requireCode(t *testing.T, err error, want domainagg.ErrorCode) {
	t.Helper()
	if got := domainagg.CodeOf(err); got != want {
		t.Fatalf("error code: want=%s got=%s (%v)", want, got, err)
	}
}

func noLimits() ClaimLimits {
	return ClaimLimits{SameIPTTL: 0}
}

func dbcOf(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx}
}
