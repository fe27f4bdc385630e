package claims

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cdk-backend/internal/domain"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

type MembershipRepo interface {
	Create(dbc dbctx.Context, m *types.Membership) error
	GetByProjectAndUser(dbc dbctx.Context, projectID, userID uuid.UUID) (*types.Membership, error)
	CountByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
}

type membershipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMembershipRepo(db *gorm.DB, baseLog *logger.Logger) MembershipRepo {
	return &membershipRepo{
		db:  db,
		log: baseLog.With("repo", "MembershipRepo"),
	}
}

// Create surfaces the (project_id, claimer_id) unique violation as-is; the
// caller decides what a duplicate means.
func (r *membershipRepo) Create(dbc dbctx.Context, m *types.Membership) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(m).Error
}

func (r *membershipRepo) GetByProjectAndUser(dbc dbctx.Context, projectID, userID uuid.UUID) (*types.Membership, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Membership
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND claimer_id = ?", projectID, userID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *membershipRepo) CountByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Membership{}).
		Where("project_id = ?", projectID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
