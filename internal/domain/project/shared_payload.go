package project

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SharedPayload is the single piece of content every claimant of a
// shared-secret project receives. Approved applications of a
// manual-application project also read it.
type SharedPayload struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"project_id"`
	Content   string    `gorm:"type:text;not null;column:content" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (sp *SharedPayload) BeforeCreate(*gorm.DB) error {
	if sp.ID == uuid.Nil {
		sp.ID = uuid.New()
	}
	return nil
}

func (SharedPayload) TableName() string { return "project_shared_payload" }
