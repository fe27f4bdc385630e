package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/cdk-backend/internal/data/repos/claims"
	"github.com/yungbote/cdk-backend/internal/data/repos/project"
	"github.com/yungbote/cdk-backend/internal/data/repos/stats"
	"github.com/yungbote/cdk-backend/internal/data/repos/user"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type ProjectRepo = project.ProjectRepo
type ProjectListFilter = project.ListFilter
type SharedPayloadRepo = project.SharedPayloadRepo
type QuestionRepo = project.QuestionRepo
type ReportRepo = project.ReportRepo

type PoolItemRepo = claims.PoolItemRepo
type MembershipRepo = claims.MembershipRepo
type ApplicationRepo = claims.ApplicationRepo

type StatsRepo = stats.StatsRepo
type ClaimRecord = stats.ClaimRecord
type GroupCount = stats.GroupCount
type DayCount = stats.DayCount

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return project.NewProjectRepo(db, baseLog)
}

func NewSharedPayloadRepo(db *gorm.DB, baseLog *logger.Logger) SharedPayloadRepo {
	return project.NewSharedPayloadRepo(db, baseLog)
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return project.NewQuestionRepo(db, baseLog)
}

func NewReportRepo(db *gorm.DB, baseLog *logger.Logger) ReportRepo {
	return project.NewReportRepo(db, baseLog)
}

func NewPoolItemRepo(db *gorm.DB, baseLog *logger.Logger) PoolItemRepo {
	return claims.NewPoolItemRepo(db, baseLog)
}

func NewMembershipRepo(db *gorm.DB, baseLog *logger.Logger) MembershipRepo {
	return claims.NewMembershipRepo(db, baseLog)
}

func NewApplicationRepo(db *gorm.DB, baseLog *logger.Logger) ApplicationRepo {
	return claims.NewApplicationRepo(db, baseLog)
}

func NewStatsRepo(db *gorm.DB, baseLog *logger.Logger) StatsRepo {
	return stats.NewStatsRepo(db, baseLog)
}
