package project

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/cdk-backend/internal/domain"
	projectdomain "github.com/yungbote/cdk-backend/internal/domain/project"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

type ListFilter struct {
	CreatorID     *uuid.UUID
	Category      string
	Mode          projectdomain.Mode
	Status        projectdomain.Status
	IncludeHidden bool
	Limit         int
	Offset        int
}

type ProjectRepo interface {
	Create(dbc dbctx.Context, p *types.Project) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	List(dbc dbctx.Context, f ListFilter) ([]*types.Project, int64, error)
	ListIDs(dbc dbctx.Context) ([]uuid.UUID, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	ReserveQuota(dbc dbctx.Context, id uuid.UUID) (bool, error)
	SetClaimedCount(dbc dbctx.Context, id uuid.UUID, count int64) error
	ExpireEnded(dbc dbctx.Context, now time.Time) (int64, error)
	AddReport(dbc dbctx.Context, id uuid.UUID, hideAt int64) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{
		db:  db,
		log: baseLog.With("repo", "ProjectRepo"),
	}
}

func (r *projectRepo) Create(dbc dbctx.Context, p *types.Project) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(p).Error
}

func (r *projectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var p types.Project
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LockByID reads the row with FOR UPDATE. Only meaningful inside a transaction.
func (r *projectRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var p types.Project
	err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) List(dbc dbctx.Context, f ListFilter) ([]*types.Project, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&types.Project{})
	if f.CreatorID != nil {
		q = q.Where("creator_id = ?", *f.CreatorID)
	}
	if !f.IncludeHidden {
		q = q.Where("is_hidden = ?", false)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Mode != "" {
		q = q.Where("mode = ?", f.Mode)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var out []*types.Project
	if err := q.Order("created_at DESC").Order("id").Limit(limit).Offset(f.Offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *projectRepo) ListIDs(dbc dbctx.Context) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Project{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *projectRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Project{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ReserveQuota is the ledger's compare-and-increment. It succeeds for at
// most TotalQuota callers no matter how many race; losers block on the row
// lock and then fail the guard.
func (r *projectRepo) ReserveQuota(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Project{}).
		Where("id = ? AND claimed_count < total_quota", id).
		Updates(map[string]interface{}{
			"claimed_count": gorm.Expr("claimed_count + 1"),
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *projectRepo) SetClaimedCount(dbc dbctx.Context, id uuid.UUID, count int64) error {
	return r.UpdateFields(dbc, id, map[string]interface{}{"claimed_count": count})
}

// ExpireEnded moves active projects whose window closed before now to expired.
func (r *projectRepo) ExpireEnded(dbc dbctx.Context, now time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Project{}).
		Where("status = ? AND end_time IS NOT NULL AND end_time < ?", projectdomain.StatusActive, now.UTC()).
		Updates(map[string]interface{}{
			"status":     projectdomain.StatusExpired,
			"updated_at": now.UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// AddReport bumps the report count and hides the project once the count
// reaches hideAt. hideAt <= 0 never hides.
func (r *projectRepo) AddReport(dbc dbctx.Context, id uuid.UUID, hideAt int64) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	updates := map[string]interface{}{
		"report_count": gorm.Expr("report_count + 1"),
		"updated_at":   time.Now().UTC(),
	}
	if hideAt > 0 {
		updates["is_hidden"] = gorm.Expr("CASE WHEN report_count + 1 >= ? THEN ? ELSE is_hidden END", hideAt, true)
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Project{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete soft-deletes the project row. Seed rows stay behind and become
// unreachable with it.
func (r *projectRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Project{}).Error
}
