package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/cdk-backend/internal/domain/claims"
	"github.com/yungbote/cdk-backend/internal/domain/project"
)

// WriteTxOwnership defines who owns write transaction boundaries.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate means aggregate write methods start and manage their own transaction.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// Contract describes aggregate-level policy expectations.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	Notes            string
}

// Aggregate is the common marker for all aggregate contracts.
type Aggregate interface {
	Contract() Contract
}

var ClaimAggregateContract = Contract{
	Name:             "ClaimAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	Notes:            "duplicate check, quota reservation and allocation commit together or not at all",
}

var ProjectAggregateContract = Contract{
	Name:             "ProjectAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	Notes:            "project rows and their seed rows are created in one transaction",
}

type ClaimInput struct {
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Password  string
	Answers   []claims.Answer
	ClientIP  string
	Now       time.Time
}

type ClaimResult struct {
	ProjectID     uuid.UUID
	Mode          project.Mode
	Granted       bool
	Content       string
	ApplicationID uuid.UUID
	Status        claims.ApplicationStatus
	ClaimedAt     time.Time
}

type EligibilityInput struct {
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Now       time.Time
}

type EligibilityResult struct {
	ProjectID         uuid.UUID
	Mode              project.Mode
	AlreadyClaimed    bool
	CanClaim          bool
	FailingReason     string
	RemainingQuota    int64
	NeedsPassword     bool
	Content           string
	ApplicationStatus claims.ApplicationStatus
}

type ResolveApplicationInput struct {
	ApplicationID uuid.UUID
	ApproverID    uuid.UUID
	Decision      claims.Decision
	Now           time.Time
}

type ResolveApplicationResult struct {
	Application *claims.Application
	Project     *project.Project
}

// ClaimAggregate owns every write that moves a project's claimed count.
type ClaimAggregate interface {
	Aggregate
	Eligibility(ctx context.Context, in EligibilityInput) (EligibilityResult, error)
	Claim(ctx context.Context, in ClaimInput) (ClaimResult, error)
	ResolveApplication(ctx context.Context, in ResolveApplicationInput) (ResolveApplicationResult, error)
	Reconcile(ctx context.Context, projectID uuid.UUID) (ReconcileResult, error)
}

type ReconcileResult struct {
	ProjectID uuid.UUID
	Before    int64
	After     int64
}

func (r ReconcileResult) Changed() bool { return r.Before != r.After }

type CreateProjectInput struct {
	CreatorID   uuid.UUID
	Name        string
	Description string
	Category    string
	Mode        project.Mode
	TotalQuota  int64
	StartTime   time.Time
	EndTime     *time.Time
	IsHidden    bool
	Password    string

	RequiresVerifiedIdentity bool
	MinTrustLevel            int
	MinRiskScore             int
	AllowSameIP              bool

	// Seed depends on Mode: Items for an exclusive pool, SharedPayload for a
	// shared secret, Questions (plus an optional SharedPayload released on
	// approval) for manual application.
	Items         []string
	SharedPayload string
	Questions     []string
}

type CreateProjectResult struct {
	Project      *project.Project
	ItemsSkipped int // blank lines dropped from the seed
}

type ImportItemsInput struct {
	ProjectID uuid.UUID
	CreatorID uuid.UUID
	Items     []string
}

type ImportItemsResult struct {
	Inserted   int
	Skipped    int
	TotalQuota int64
}

// UpdateProjectInput carries optional changes; nil fields are left alone.
type UpdateProjectInput struct {
	ProjectID uuid.UUID
	CreatorID uuid.UUID

	Name        *string
	Description *string
	Category    *string
	Mode        *project.Mode
	TotalQuota  *int64
	StartTime   *time.Time
	EndTime     *time.Time
	ClearEnd    bool
	IsHidden    *bool
	Status      *project.Status

	Password      *string
	ClearPassword bool

	RequiresVerifiedIdentity *bool
	MinTrustLevel            *int
	MinRiskScore             *int
	AllowSameIP              *bool

	SharedPayload *string
}

type DeleteProjectInput struct {
	ProjectID uuid.UUID
	CreatorID uuid.UUID
}

type ReportProjectInput struct {
	ProjectID  uuid.UUID
	ReporterID uuid.UUID
	Reason     string
}

type ReportProjectResult struct {
	ProjectID   uuid.UUID
	ReportCount int64
	Hidden      bool
}

// ProjectAggregate owns project creation, creator-only mutations and
// community reports.
type ProjectAggregate interface {
	Aggregate
	CreateProject(ctx context.Context, in CreateProjectInput) (CreateProjectResult, error)
	ImportItems(ctx context.Context, in ImportItemsInput) (ImportItemsResult, error)
	UpdateProject(ctx context.Context, in UpdateProjectInput) (*project.Project, error)
	// DeleteProject is refused once anything was claimed or applied for.
	DeleteProject(ctx context.Context, in DeleteProjectInput) error
	ReportProject(ctx context.Context, in ReportProjectInput) (ReportProjectResult, error)
}
