package project

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Mode selects how a project hands out what it offers.
type Mode string

const (
	ModeExclusivePool     Mode = "exclusive_pool"
	ModeSharedSecret      Mode = "shared_secret"
	ModeManualApplication Mode = "manual_application"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeExclusivePool, ModeSharedSecret, ModeManualApplication:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCompleted, StatusExpired:
		return true
	default:
		return false
	}
}

// Terminal statuses cannot be left once entered.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID   uuid.UUID `gorm:"type:uuid;not null;index" json:"creator_id"`
	Name        string    `gorm:"not null;column:name" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	Category    string    `gorm:"not null;default:'other';index;column:category" json:"category"`

	Mode Mode `gorm:"type:varchar(32);not null;column:mode" json:"mode"`

	// ClaimedCount is a cache over committed claim rows; see ledger recount.
	TotalQuota   int64 `gorm:"not null;column:total_quota" json:"total_quota"`
	ClaimedCount int64 `gorm:"not null;default:0;column:claimed_count" json:"claimed_count"`

	StartTime time.Time  `gorm:"not null;column:start_time" json:"start_time"`
	EndTime   *time.Time `gorm:"column:end_time" json:"end_time,omitempty"`

	IsHidden     bool    `gorm:"not null;default:false;column:is_hidden" json:"is_hidden"`
	ReportCount  int64   `gorm:"not null;default:0;column:report_count" json:"report_count"`
	PasswordHash *string `gorm:"column:password_hash" json:"-"`

	RequiresVerifiedIdentity bool   `gorm:"not null;default:false;column:requires_verified_identity" json:"requires_verified_identity"`
	MinTrustLevel            int    `gorm:"not null;default:0;column:min_trust_level" json:"min_trust_level"`
	MinRiskScore             int    `gorm:"not null;default:0;column:min_risk_score" json:"min_risk_score"`
	AllowSameIP              bool   `gorm:"not null;column:allow_same_ip" json:"allow_same_ip"`
	Status                   Status `gorm:"type:varchar(16);not null;default:'active';index;column:status" json:"status"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Project) TableName() string { return "project" }

func (p *Project) HasPassword() bool {
	return p != nil && p.PasswordHash != nil && *p.PasswordHash != ""
}

// Remaining never goes negative, even if the cache is ahead of the quota.
func (p *Project) Remaining() int64 {
	if p == nil || p.ClaimedCount >= p.TotalQuota {
		return 0
	}
	return p.TotalQuota - p.ClaimedCount
}
