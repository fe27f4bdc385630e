package project

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cdk-backend/internal/domain"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

type ReportRepo interface {
	// Create fails with a unique violation when the reporter already
	// reported the project.
	Create(dbc dbctx.Context, r *types.ProjectReport) error
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ProjectReport, error)
}

type reportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportRepo(db *gorm.DB, baseLog *logger.Logger) ReportRepo {
	return &reportRepo{
		db:  db,
		log: baseLog.With("repo", "ReportRepo"),
	}
}

func (r *reportRepo) Create(dbc dbctx.Context, rep *types.ProjectReport) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(rep).Error
}

func (r *reportRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ProjectReport, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ProjectReport
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
