package claims

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PoolItem is one single-use unit of an exclusive-pool project. It moves
// from unclaimed to claimed exactly once.
type PoolItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Seq         int64     `gorm:"not null;column:seq" json:"seq"`
	Content     string    `gorm:"type:text;not null;column:content" json:"-"`
	Fingerprint string    `gorm:"type:varchar(64);not null;column:fingerprint" json:"fingerprint"`

	Claimed   bool       `gorm:"not null;default:false;column:claimed" json:"claimed"`
	ClaimerID *uuid.UUID `gorm:"type:uuid;column:claimer_id" json:"claimer_id,omitempty"`
	ClaimedAt *time.Time `gorm:"column:claimed_at" json:"claimed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (it *PoolItem) BeforeCreate(*gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	if it.Fingerprint == "" {
		it.Fingerprint = Fingerprint(it.Content)
	}
	return nil
}

func (PoolItem) TableName() string { return "project_pool_item" }

// Fingerprint is the sha256 hex of the trimmed content. Two imports of the
// same code collapse to one row.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(content)))
	return hex.EncodeToString(sum[:])
}
