package project

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationQuestion struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_question_project_position,priority:1" json:"project_id"`
	Position  int       `gorm:"not null;index:idx_question_project_position,priority:2" json:"position"`
	Prompt    string    `gorm:"type:text;not null" json:"prompt"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (q *ApplicationQuestion) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

func (ApplicationQuestion) TableName() string { return "project_application_question" }
