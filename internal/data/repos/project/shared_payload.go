package project

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/cdk-backend/internal/domain"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

type SharedPayloadRepo interface {
	Upsert(dbc dbctx.Context, projectID uuid.UUID, content string) error
	GetByProject(dbc dbctx.Context, projectID uuid.UUID) (*types.SharedPayload, error)
}

type sharedPayloadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSharedPayloadRepo(db *gorm.DB, baseLog *logger.Logger) SharedPayloadRepo {
	return &sharedPayloadRepo{
		db:  db,
		log: baseLog.With("repo", "SharedPayloadRepo"),
	}
}

func (r *sharedPayloadRepo) Upsert(dbc dbctx.Context, projectID uuid.UUID, content string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	row := &types.SharedPayload{
		ProjectID: projectID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
		}).
		Create(row).Error
}

func (r *sharedPayloadRepo) GetByProject(dbc dbctx.Context, projectID uuid.UUID) (*types.SharedPayload, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.SharedPayload
	err := transaction.WithContext(dbc.Ctx).Where("project_id = ?", projectID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
