package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/cdk-backend/internal/data/repos"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/claims"
	"github.com/yungbote/cdk-backend/internal/domain/eligibility"
	"github.com/yungbote/cdk-backend/internal/domain/project"
	"github.com/yungbote/cdk-backend/internal/domain/user"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
)

type ClaimAggregateDeps struct {
	Base BaseDeps

	Projects     repos.ProjectRepo
	Payloads     repos.SharedPayloadRepo
	Questions    repos.QuestionRepo
	Items        repos.PoolItemRepo
	Members      repos.MembershipRepo
	Applications repos.ApplicationRepo
	Users        repos.UserRepo

	// VerifiedSource is the identity source a project with
	// requires_verified_identity accepts.
	VerifiedSource string
}

type claimAggregate struct {
	deps       ClaimAggregateDeps
	ledger     quotaLedger
	strategies strategySet
}

func NewClaimAggregate(deps ClaimAggregateDeps) domainagg.ClaimAggregate {
	deps.Base = deps.Base.withDefaults()
	return &claimAggregate{
		deps:       deps,
		ledger:     quotaLedger{projects: deps.Projects},
		strategies: newStrategySet(deps),
	}
}

func (a *claimAggregate) Contract() domainagg.Contract {
	return domainagg.ClaimAggregateContract
}

func (a *claimAggregate) configured() bool {
	d := a.deps
	return d.Projects != nil && d.Payloads != nil && d.Questions != nil && d.Items != nil &&
		d.Members != nil && d.Applications != nil && d.Users != nil
}

// loadSubjects reads the project and user outside any transaction. The
// gate works on this snapshot; the ledger re-checks quota atomically.
func (a *claimAggregate) loadSubjects(ctx context.Context, op string, projectID, userID uuid.UUID) (*project.Project, *user.User, error) {
	dbc := dbctx.Context{Ctx: ctx}
	p, err := a.deps.Projects.GetByID(dbc, projectID)
	if err != nil {
		return nil, nil, MapError(op, err)
	}
	if p == nil {
		return nil, nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("project not found: %s", projectID), nil)
	}
	u, err := a.deps.Users.GetByID(dbc, userID)
	if err != nil {
		return nil, nil, MapError(op, err)
	}
	if u == nil {
		return nil, nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("user not found: %s", userID), nil)
	}
	return p, u, nil
}

func (a *claimAggregate) Claim(ctx context.Context, in domainagg.ClaimInput) (domainagg.ClaimResult, error) {
	const op = "Claims.Claim"
	out := domainagg.ClaimResult{ProjectID: in.ProjectID}
	if in.ProjectID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id", nil)
	}
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "claim aggregate repos not configured", nil)
	}
	now := a.deps.Base.clock(in.Now)

	p, u, err := a.loadSubjects(ctx, op, in.ProjectID, in.UserID)
	if err != nil {
		return out, err
	}
	out.Mode = p.Mode
	strategy, err := a.strategies.forProject(op, p)
	if err != nil {
		return out, err
	}

	decision := eligibility.Evaluate(eligibility.Input{
		Project:        p,
		User:           u,
		Password:       in.Password,
		CheckPassword:  true,
		Now:            now,
		VerifiedSource: a.deps.VerifiedSource,
	})
	if !decision.Allowed {
		err := decision.Reason.Err(op)
		if decision.Reason == eligibility.ReasonQuotaExhausted {
			// A retry after a successful claim on a now-full project still
			// reports the duplicate.
			if dup, derr := strategy.DuplicateCheck(dbctx.Context{Ctx: ctx}, p, in.UserID); derr == nil && dup {
				err = domainagg.NewError(domainagg.CodeDuplicateClaim, op, "user already claimed from this project", nil)
			}
		}
		a.observeClaim(p.Mode, err)
		return out, err
	}

	req := claimRequest{
		UserID:   in.UserID,
		ClientIP: strings.TrimSpace(in.ClientIP),
		Answers:  in.Answers,
		Now:      now,
	}
	var alloc allocation
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		dup, err := strategy.DuplicateCheck(dbc, p, in.UserID)
		if err != nil {
			return err
		}
		if dup {
			return domainagg.NewError(domainagg.CodeDuplicateClaim, op, "user already claimed from this project", nil)
		}
		if strategy.ReservesOnClaim() {
			if err := a.ledger.Reserve(dbc, p.ID, op); err != nil {
				return err
			}
		}
		alloc, err = strategy.Allocate(dbc, p, req)
		return err
	})
	a.observeClaim(p.Mode, err)
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodeNoItemAvailable) {
			// The ledger had headroom but the pool was empty: counts and items disagree.
			a.deps.Base.Log.Error("pool exhausted below quota",
				"op", op,
				"project_id", p.ID,
				"claimed_count", p.ClaimedCount,
				"total_quota", p.TotalQuota,
			)
		}
		a.deps.Base.Log.Debug("claim rejected",
			"op", op,
			"project_id", p.ID,
			"user_id", in.UserID,
			"code", domainagg.CodeOf(err),
		)
		return out, err
	}

	out.Granted = alloc.Granted
	out.Content = alloc.Content
	out.ApplicationID = alloc.ApplicationID
	out.Status = alloc.Status
	out.ClaimedAt = alloc.ClaimedAt
	return out, nil
}

func (a *claimAggregate) observeClaim(mode project.Mode, err error) {
	outcome := "granted"
	if err != nil {
		outcome = aggregateErrorStatus(err)
	} else if mode == project.ModeManualApplication {
		outcome = string(claims.ApplicationPending)
	}
	a.deps.Base.Hooks.ObserveClaim(string(mode), outcome)
}

// Eligibility is the read-only dry run of Claim. The password is never
// checked here; NeedsPassword tells the caller to collect one.
func (a *claimAggregate) Eligibility(ctx context.Context, in domainagg.EligibilityInput) (domainagg.EligibilityResult, error) {
	const op = "Claims.Eligibility"
	out := domainagg.EligibilityResult{ProjectID: in.ProjectID}
	if in.ProjectID == uuid.Nil || in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id or user_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "claim aggregate repos not configured", nil)
	}
	p, u, err := a.loadSubjects(ctx, op, in.ProjectID, in.UserID)
	if err != nil {
		return out, err
	}
	strategy, err := a.strategies.forProject(op, p)
	if err != nil {
		return out, err
	}
	h, err := strategy.Holding(dbctx.Context{Ctx: ctx}, p, in.UserID)
	if err != nil {
		return out, MapError(op, err)
	}

	decision := eligibility.Evaluate(eligibility.Input{
		Project:        p,
		User:           u,
		Now:            a.deps.Base.clock(in.Now),
		VerifiedSource: a.deps.VerifiedSource,
	})

	out.Mode = p.Mode
	out.AlreadyClaimed = h.Claimed
	out.Content = h.Content
	out.ApplicationStatus = h.ApplicationStatus
	out.RemainingQuota = p.Remaining()
	out.NeedsPassword = decision.NeedsPassword
	switch {
	case h.Claimed:
		out.FailingReason = string(domainagg.CodeDuplicateClaim)
	case !decision.Allowed:
		out.FailingReason = string(decision.Reason)
	default:
		out.CanClaim = true
	}
	return out, nil
}

func (a *claimAggregate) ResolveApplication(ctx context.Context, in domainagg.ResolveApplicationInput) (domainagg.ResolveApplicationResult, error) {
	const op = "Claims.ResolveApplication"
	var out domainagg.ResolveApplicationResult
	if in.ApplicationID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing application_id", nil)
	}
	if in.ApproverID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing approver_id", nil)
	}
	if !in.Decision.Valid() {
		return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("invalid decision %q", in.Decision), nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "claim aggregate repos not configured", nil)
	}
	now := a.deps.Base.clock(in.Now)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		app, err := a.deps.Applications.LockByID(dbc, in.ApplicationID)
		if err != nil {
			return err
		}
		if app == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("application not found: %s", in.ApplicationID), nil)
		}
		p, err := a.deps.Projects.GetByID(dbc, app.ProjectID)
		if err != nil {
			return err
		}
		if p == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("project not found: %s", app.ProjectID), nil)
		}
		if p.CreatorID != in.ApproverID {
			return domainagg.NewError(domainagg.CodeAuthorization, op, "only the project creator can resolve applications", nil)
		}
		if app.Status != claims.ApplicationPending {
			return domainagg.NewError(domainagg.CodeStateConflict, op, fmt.Sprintf("application already %s", app.Status), nil)
		}

		status := claims.ApplicationStatus(in.Decision)
		if status == claims.ApplicationApproved {
			if err := a.ledger.Reserve(dbc, p.ID, op); err != nil {
				return err
			}
			p.ClaimedCount++
		}
		err = a.deps.Base.CASGuard.Apply(dbc, StatusTransition{
			Model: app,
			ID:    app.ID,
			From:  []string{string(claims.ApplicationPending)},
			To:    string(status),
			Set: map[string]any{
				"processed_at": now,
				"approver_id":  in.ApproverID,
			},
		})
		if err != nil {
			return err
		}

		approver := in.ApproverID
		app.Status = status
		app.ProcessedAt = &now
		app.ApproverID = &approver
		out.Application = app
		out.Project = p
		return nil
	})
	if err != nil {
		return domainagg.ResolveApplicationResult{}, err
	}
	return out, nil
}

// Reconcile recomputes a project's claimed count from its claim rows.
func (a *claimAggregate) Reconcile(ctx context.Context, projectID uuid.UUID) (domainagg.ReconcileResult, error) {
	const op = "Claims.Reconcile"
	out := domainagg.ReconcileResult{ProjectID: projectID}
	if projectID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "claim aggregate repos not configured", nil)
	}
	start := time.Now()
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.deps.Projects.LockByID(dbc, projectID)
		if err != nil {
			return err
		}
		if p == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("project not found: %s", projectID), nil)
		}
		strategy, err := a.strategies.forProject(op, p)
		if err != nil {
			return err
		}
		out, err = a.ledger.Recount(dbc, p.ID, p.ClaimedCount, strategy)
		return err
	})
	if err != nil {
		return out, err
	}
	if out.Changed() {
		a.deps.Base.Log.Warn("claimed count drift corrected",
			"project_id", projectID,
			"before", out.Before,
			"after", out.After,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return out, nil
}
