package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/cdk-backend/internal/data/aggregates"
	"github.com/yungbote/cdk-backend/internal/data/repos"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/observability"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

type Repos struct {
	User          repos.UserRepo
	Project       repos.ProjectRepo
	SharedPayload repos.SharedPayloadRepo
	Question      repos.QuestionRepo
	PoolItem      repos.PoolItemRepo
	Membership    repos.MembershipRepo
	Application   repos.ApplicationRepo
	Report        repos.ReportRepo
	Stats         repos.StatsRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		Project:       repos.NewProjectRepo(db, log),
		SharedPayload: repos.NewSharedPayloadRepo(db, log),
		Question:      repos.NewQuestionRepo(db, log),
		PoolItem:      repos.NewPoolItemRepo(db, log),
		Membership:    repos.NewMembershipRepo(db, log),
		Application:   repos.NewApplicationRepo(db, log),
		Report:        repos.NewReportRepo(db, log),
		Stats:         repos.NewStatsRepo(db, log),
	}
}

type Aggregates struct {
	Claims   domainagg.ClaimAggregate
	Projects domainagg.ProjectAggregate
}

func wireAggregates(db *gorm.DB, log *logger.Logger, metrics *observability.Metrics, r Repos, cfg ClaimsConfig) Aggregates {
	log.Info("Wiring aggregates...")
	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.WithRetryLogging(aggregates.NewObservabilityHooks(metrics), log),
	}
	return Aggregates{
		Claims: aggregates.NewClaimAggregate(aggregates.ClaimAggregateDeps{
			Base:           base,
			Projects:       r.Project,
			Payloads:       r.SharedPayload,
			Questions:      r.Question,
			Items:          r.PoolItem,
			Members:        r.Membership,
			Applications:   r.Application,
			Users:          r.User,
			VerifiedSource: cfg.VerifiedSource,
		}),
		Projects: aggregates.NewProjectAggregate(aggregates.ProjectAggregateDeps{
			Base:         base,
			Projects:     r.Project,
			Payloads:     r.SharedPayload,
			Questions:    r.Question,
			Items:        r.PoolItem,
			Applications: r.Application,
			Reports:      r.Report,

			ReportHideThreshold: cfg.ReportHideThreshold,
		}),
	}
}
