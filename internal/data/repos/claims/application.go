package claims

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/cdk-backend/internal/domain"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

type ApplicationRepo interface {
	Create(dbc dbctx.Context, a *types.Application) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Application, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Application, error)
	GetActiveByApplicant(dbc dbctx.Context, projectID, applicantID uuid.UUID) (*types.Application, error)
	GetLatestByApplicant(dbc dbctx.Context, projectID, applicantID uuid.UUID) (*types.Application, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID, status types.ApplicationStatus, limit, offset int) ([]*types.Application, int64, error)
	CountByProjectStatus(dbc dbctx.Context, projectID uuid.UUID, status types.ApplicationStatus) (int64, error)
}

type applicationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewApplicationRepo(db *gorm.DB, baseLog *logger.Logger) ApplicationRepo {
	return &applicationRepo{
		db:  db,
		log: baseLog.With("repo", "ApplicationRepo"),
	}
}

func (r *applicationRepo) Create(dbc dbctx.Context, a *types.Application) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(a).Error
}

func (r *applicationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Application, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var a types.Application
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *applicationRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Application, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var a types.Application
	err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetActiveByApplicant returns the pending or approved application, if any.
func (r *applicationRepo) GetActiveByApplicant(dbc dbctx.Context, projectID, applicantID uuid.UUID) (*types.Application, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Application
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND applicant_id = ? AND status <> ?", projectID, applicantID, types.ApplicationRejected).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *applicationRepo) GetLatestByApplicant(dbc dbctx.Context, projectID, applicantID uuid.UUID) (*types.Application, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Application
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND applicant_id = ?", projectID, applicantID).
		Order("applied_at DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *applicationRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID, status types.ApplicationStatus, limit, offset int) ([]*types.Application, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&types.Application{}).Where("project_id = ?", projectID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var out []*types.Application
	if err := q.Order("applied_at ASC").Order("id").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *applicationRepo) CountByProjectStatus(dbc dbctx.Context, projectID uuid.UUID, status types.ApplicationStatus) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Application{}).
		Where("project_id = ? AND status = ?", projectID, status).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
