package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity subsystem's view of a person, as pushed to the
// engine. The engine only reads it.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username       string    `gorm:"column:username" json:"username"`
	IdentitySource string    `gorm:"type:varchar(32);not null;default:'';column:identity_source" json:"identity_source"`
	TrustLevel     int       `gorm:"not null;default:0;column:trust_level" json:"trust_level"`
	RiskScore      int       `gorm:"not null;default:0;column:risk_score" json:"risk_score"`
	Banned         bool      `gorm:"not null;default:false;column:banned" json:"banned"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user_snapshot" }
