package services

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
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

// ClaimLimits bounds how often one user may attempt claims. Higher trust
// levels get a larger allowance.
type ClaimLimits struct {
	PerWindow       int           `yaml:"per_window" envconfig:"PER_WINDOW"`
	PerTrustLevel   int           `yaml:"per_trust_level" envconfig:"PER_TRUST_LEVEL"`
	Window          time.Duration `yaml:"window" envconfig:"WINDOW"`
	SameIPTTL       time.Duration `yaml:"same_ip_ttl" envconfig:"SAME_IP_TTL"`
	CreatePerWindow int           `yaml:"create_per_window" envconfig:"CREATE_PER_WINDOW"`
}

func DefaultClaimLimits() ClaimLimits {
	return ClaimLimits{
		PerWindow:       10,
		PerTrustLevel:   5,
		Window:          time.Minute,
		SameIPTTL:       30 * 24 * time.Hour,
		CreatePerWindow: 5,
	}
}

type ClaimRequest struct {
	ProjectID uuid.UUID
	Password  string
	Answers   []claims.Answer
}

type ClaimService interface {
	Eligibility(ctx context.Context, projectID uuid.UUID) (domainagg.EligibilityResult, error)
	Claim(ctx context.Context, req ClaimRequest) (domainagg.ClaimResult, error)
}

type claimService struct {
	log       *logger.Logger
	claims    domainagg.ClaimAggregate
	projects  repos.ProjectRepo
	users     repos.UserRepo
	limiter   Limiter
	sanitizer *Sanitizer
	limits    ClaimLimits
}

func NewClaimService(
	log *logger.Logger,
	claimAgg domainagg.ClaimAggregate,
	projectRepo repos.ProjectRepo,
	userRepo repos.UserRepo,
	limiter Limiter,
	sanitizer *Sanitizer,
	limits ClaimLimits,
) ClaimService {
	if limits.Window <= 0 {
		limits.Window = time.Minute
	}
	return &claimService{
		log:       log.With("service", "ClaimService"),
		claims:    claimAgg,
		projects:  projectRepo,
		users:     userRepo,
		limiter:   limiter,
		sanitizer: sanitizer,
		limits:    limits,
	}
}

func (cs *claimService) Eligibility(ctx context.Context, projectID uuid.UUID) (domainagg.EligibilityResult, error) {
	rd, err := caller(ctx, "services.claim.eligibility")
	if err != nil {
		return domainagg.EligibilityResult{}, err
	}
	return cs.claims.Eligibility(ctx, domainagg.EligibilityInput{ProjectID: projectID, UserID: rd.UserID})
}

func (cs *claimService) Claim(ctx context.Context, req ClaimRequest) (domainagg.ClaimResult, error) {
	const op = "services.claim.claim"
	rd, err := caller(ctx, op)
	if err != nil {
		return domainagg.ClaimResult{}, err
	}
	if req.ProjectID == uuid.Nil {
		return domainagg.ClaimResult{}, domainagg.NewError(domainagg.CodeValidation, op, "missing project id", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}

	if err := cs.rateLimit(ctx, dbc, rd.UserID); err != nil {
		return domainagg.ClaimResult{}, err
	}

	release, err := cs.guardSameIP(ctx, dbc, op, req.ProjectID, rd.UserID, rd.ClientIP)
	if err != nil {
		return domainagg.ClaimResult{}, err
	}

	res, err := cs.claims.Claim(ctx, domainagg.ClaimInput{
		ProjectID: req.ProjectID,
		UserID:    rd.UserID,
		Password:  req.Password,
		Answers:   cs.sanitizer.Answers(req.Answers),
		ClientIP:  rd.ClientIP,
	})
	if err != nil {
		release()
		return domainagg.ClaimResult{}, err
	}
	cs.log.ForRequest(ctx).Info("claim committed",
		"project_id", res.ProjectID,
		"mode", res.Mode,
		"granted", res.Granted,
	)
	return res, nil
}

func (cs *claimService) rateLimit(ctx context.Context, dbc dbctx.Context, userID uuid.UUID) error {
	if cs.limiter == nil || cs.limits.PerWindow <= 0 {
		return nil
	}
	limit := cs.limits.PerWindow
	u, err := cs.users.GetByID(dbc, userID)
	if err != nil {
		return err
	}
	if u != nil && u.TrustLevel > 0 {
		limit += u.TrustLevel * cs.limits.PerTrustLevel
	}
	ok, err := cs.limiter.Allow(ctx, "rl:claim:"+userID.String(), limit, cs.limits.Window)
	if err != nil {
		// A broken limiter must not block claims; the ledger still holds.
		cs.log.ForRequest(ctx).Warn("claim rate limiter unavailable", "error", err)
		return nil
	}
	if !ok {
		return rateLimited("claim")
	}
	return nil
}

// guardSameIP holds the per-project address key for projects that forbid
// shared addresses. The returned release undoes the hold when the claim
// itself fails.
func (cs *claimService) guardSameIP(ctx context.Context, dbc dbctx.Context, op string, projectID, userID uuid.UUID, clientIP string) (func(), error) {
	noop := func() {}
	ip := strings.TrimSpace(clientIP)
	if cs.limiter == nil || ip == "" {
		return noop, nil
	}
	p, err := cs.projects.GetByID(dbc, projectID)
	if err != nil {
		return noop, err
	}
	if p == nil || p.AllowSameIP {
		return noop, nil
	}
	key := fmt.Sprintf("claim:ip:%s:%s", projectID, ip)
	acquired, holder, err := cs.limiter.Acquire(ctx, key, userID.String(), cs.limits.SameIPTTL)
	if err != nil {
		return noop, domainagg.NewError(domainagg.CodeRetryable, op, "same-ip guard unavailable", err)
	}
	if !acquired && holder == userID.String() {
		// The address is already ours, e.g. a reapplication after a
		// rejection. Leave the hold in place whatever this attempt does.
		return noop, nil
	}
	if !acquired {
		// This user may hold a claim made from another address.
		el, elErr := cs.claims.Eligibility(ctx, domainagg.EligibilityInput{ProjectID: projectID, UserID: userID})
		if elErr == nil && el.AlreadyClaimed {
			return noop, domainagg.NewError(domainagg.CodeDuplicateClaim, op, "already claimed", nil)
		}
		return noop, eligibility.ReasonSameIP.Err(op)
	}
	return func() {
		if err := cs.limiter.Release(context.WithoutCancel(ctx), key); err != nil {
			cs.log.Warn("same-ip release failed", "project_id", projectID, "error", err)
		}
	}, nil
}
