package claims

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/cdk-backend/internal/domain"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

const fingerprintChunk = 500

type PoolItemRepo interface {
	CreateBatch(dbc dbctx.Context, items []*types.PoolItem) error
	ExistingFingerprints(dbc dbctx.Context, projectID uuid.UUID, fingerprints []string) (map[string]bool, error)
	MaxSeq(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
	LockNextAvailable(dbc dbctx.Context, projectID uuid.UUID) (*types.PoolItem, error)
	MarkClaimed(dbc dbctx.Context, id uuid.UUID, claimerID uuid.UUID, at time.Time) (bool, error)
	GetClaimedByUser(dbc dbctx.Context, projectID, userID uuid.UUID) (*types.PoolItem, error)
	Counts(dbc dbctx.Context, projectID uuid.UUID) (total int64, claimed int64, err error)
}

type poolItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPoolItemRepo(db *gorm.DB, baseLog *logger.Logger) PoolItemRepo {
	return &poolItemRepo{
		db:  db,
		log: baseLog.With("repo", "PoolItemRepo"),
	}
}

func (r *poolItemRepo) CreateBatch(dbc dbctx.Context, items []*types.PoolItem) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(items) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).CreateInBatches(items, 500).Error
}

func (r *poolItemRepo) ExistingFingerprints(dbc dbctx.Context, projectID uuid.UUID, fingerprints []string) (map[string]bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := make(map[string]bool, len(fingerprints))
	for start := 0; start < len(fingerprints); start += fingerprintChunk {
		end := start + fingerprintChunk
		if end > len(fingerprints) {
			end = len(fingerprints)
		}
		var found []string
		if err := transaction.WithContext(dbc.Ctx).
			Model(&types.PoolItem{}).
			Where("project_id = ? AND fingerprint IN ?", projectID, fingerprints[start:end]).
			Pluck("fingerprint", &found).Error; err != nil {
			return nil, err
		}
		for _, fp := range found {
			out[fp] = true
		}
	}
	return out, nil
}

func (r *poolItemRepo) MaxSeq(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var max int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.PoolItem{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max, nil
}

// LockNextAvailable returns the oldest unclaimed item and holds its row lock
// until the surrounding transaction ends. Rows locked by a concurrent
// claimer are skipped rather than waited on. Nil means the pool is empty.
func (r *poolItemRepo) LockNextAvailable(dbc dbctx.Context, projectID uuid.UUID) (*types.PoolItem, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var items []*types.PoolItem
	if err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("project_id = ? AND claimed = ?", projectID, false).
		Order("seq ASC").
		Limit(1).
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// MarkClaimed flips claimed false -> true. False means someone else got there first.
func (r *poolItemRepo) MarkClaimed(dbc dbctx.Context, id uuid.UUID, claimerID uuid.UUID, at time.Time) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.PoolItem{}).
		Where("id = ? AND claimed = ?", id, false).
		Updates(map[string]interface{}{
			"claimed":    true,
			"claimer_id": claimerID,
			"claimed_at": at,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *poolItemRepo) GetClaimedByUser(dbc dbctx.Context, projectID, userID uuid.UUID) (*types.PoolItem, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var items []*types.PoolItem
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND claimer_id = ? AND claimed = ?", projectID, userID, true).
		Limit(1).
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

func (r *poolItemRepo) Counts(dbc dbctx.Context, projectID uuid.UUID) (int64, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var total, claimed int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.PoolItem{}).
		Where("project_id = ?", projectID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.PoolItem{}).
		Where("project_id = ? AND claimed = ?", projectID, true).
		Count(&claimed).Error; err != nil {
		return 0, 0, err
	}
	return total, claimed, nil
}
