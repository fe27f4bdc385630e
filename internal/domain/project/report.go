package project

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Report is one user's complaint about a project. A user reports a given
// project at most once.
type Report struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_report_project_reporter,priority:1" json:"project_id"`
	ReporterID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_report_project_reporter,priority:2;index" json:"reporter_id"`
	Reason     string    `gorm:"type:text;not null" json:"reason"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (r *Report) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (Report) TableName() string { return "project_report" }
