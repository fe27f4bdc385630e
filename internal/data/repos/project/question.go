package project

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cdk-backend/internal/domain"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

type QuestionRepo interface {
	Create(dbc dbctx.Context, questions []*types.ApplicationQuestion) error
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ApplicationQuestion, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{
		db:  db,
		log: baseLog.With("repo", "QuestionRepo"),
	}
}

func (r *questionRepo) Create(dbc dbctx.Context, questions []*types.ApplicationQuestion) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(questions) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Create(&questions).Error
}

func (r *questionRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ApplicationQuestion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ApplicationQuestion
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
