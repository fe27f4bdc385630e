package claims

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationRejected:
		return true
	default:
		return false
	}
}

// Decision is what an approver may resolve a pending application to.
type Decision string

const (
	DecisionApprove Decision = "approved"
	DecisionReject  Decision = "rejected"
)

func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// Answer pairs a question prompt with the applicant's response, so the
// record stays readable if the questions are later edited.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Application struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"project_id"`
	ApplicantID uuid.UUID         `gorm:"type:uuid;not null;index" json:"applicant_id"`
	Answers     datatypes.JSON    `gorm:"column:answers" json:"answers"`
	Status      ApplicationStatus `gorm:"type:varchar(16);not null;index;column:status" json:"status"`

	AppliedAt   time.Time  `gorm:"not null;column:applied_at" json:"applied_at"`
	ProcessedAt *time.Time `gorm:"column:processed_at" json:"processed_at,omitempty"`
	ApproverID  *uuid.UUID `gorm:"type:uuid;column:approver_id" json:"approver_id,omitempty"`
}

func (a *Application) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (Application) TableName() string { return "project_application" }

func (a *Application) DecodeAnswers() ([]Answer, error) {
	if a == nil || len(a.Answers) == 0 {
		return nil, nil
	}
	var out []Answer
	if err := json.Unmarshal(a.Answers, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeAnswers(answers []Answer) (datatypes.JSON, error) {
	if answers == nil {
		answers = []Answer{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
