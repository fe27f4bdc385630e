package domain

import (
	"github.com/yungbote/cdk-backend/internal/domain/claims"
	"github.com/yungbote/cdk-backend/internal/domain/project"
	"github.com/yungbote/cdk-backend/internal/domain/user"
)

type (
	Project             = project.Project
	ProjectMode         = project.Mode
	ProjectStatus       = project.Status
	SharedPayload       = project.SharedPayload
	ApplicationQuestion = project.ApplicationQuestion
	ProjectReport       = project.Report

	PoolItem          = claims.PoolItem
	Membership        = claims.Membership
	Application       = claims.Application
	ApplicationStatus = claims.ApplicationStatus
	Answer            = claims.Answer

	User = user.User
)

const (
	ModeExclusivePool     = project.ModeExclusivePool
	ModeSharedSecret      = project.ModeSharedSecret
	ModeManualApplication = project.ModeManualApplication

	ApplicationPending  = claims.ApplicationPending
	ApplicationApproved = claims.ApplicationApproved
	ApplicationRejected = claims.ApplicationRejected
)

// Models lists every persisted model in migration order.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&project.Project{},
		&project.SharedPayload{},
		&project.ApplicationQuestion{},
		&project.Report{},
		&claims.PoolItem{},
		&claims.Membership{},
		&claims.Application{},
	}
}
