package claims

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Membership records that a user received a shared-secret project's
// payload. (project_id, claimer_id) is unique.
type Membership struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	ClaimerID uuid.UUID `gorm:"type:uuid;not null;index" json:"claimer_id"`
	ClaimerIP string    `gorm:"type:varchar(64);column:claimer_ip" json:"-"`
	ClaimedAt time.Time `gorm:"not null;column:claimed_at" json:"claimed_at"`
}

func (m *Membership) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (Membership) TableName() string { return "project_membership" }
