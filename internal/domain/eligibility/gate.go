package eligibility

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/cdk-backend/internal/domain/project"
	"github.com/yungbote/cdk-backend/internal/domain/user"
)

type Input struct {
	Project *project.Project
	User    *user.User

	// Password is only compared when CheckPassword is set. Read-only
	// callers leave it unset and look at Decision.NeedsPassword instead.
	Password      string
	CheckPassword bool

	Now            time.Time
	VerifiedSource string
}

type Decision struct {
	Allowed       bool
	Reason        Reason
	NeedsPassword bool
}

func deny(r Reason, needsPassword bool) Decision {
	return Decision{Reason: r, NeedsPassword: needsPassword}
}

// Evaluate runs the checks in a fixed order and stops at the first
// failure. It performs no writes.
func Evaluate(in Input) Decision {
	p, u := in.Project, in.User
	needsPassword := p.HasPassword()
	if p == nil {
		return deny(ReasonProjectInactive, false)
	}
	if u == nil {
		return deny(ReasonIdentityRequired, needsPassword)
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	if u.Banned {
		return deny(ReasonUserBanned, needsPassword)
	}
	if p.Status != project.StatusActive {
		return deny(ReasonProjectInactive, needsPassword)
	}
	if now.Before(p.StartTime) {
		return deny(ReasonNotStarted, needsPassword)
	}
	if p.EndTime != nil && now.After(*p.EndTime) {
		return deny(ReasonEnded, needsPassword)
	}
	if p.ClaimedCount >= p.TotalQuota {
		return deny(ReasonQuotaExhausted, needsPassword)
	}
	if p.RequiresVerifiedIdentity {
		if !strings.EqualFold(strings.TrimSpace(u.IdentitySource), strings.TrimSpace(in.VerifiedSource)) {
			return deny(ReasonIdentityRequired, needsPassword)
		}
		if u.TrustLevel < p.MinTrustLevel {
			return deny(ReasonTrustLevelTooLow, needsPassword)
		}
	}
	if p.MinRiskScore > 0 && u.RiskScore < p.MinRiskScore {
		return deny(ReasonRiskScoreTooLow, needsPassword)
	}
	if in.CheckPassword && needsPassword {
		if in.Password == "" {
			return deny(ReasonPasswordRequired, true)
		}
		if !ComparePassword(*p.PasswordHash, in.Password) {
			return deny(ReasonPasswordMismatch, true)
		}
	}
	return Decision{Allowed: true, NeedsPassword: needsPassword}
}

// PasswordCost is the bcrypt cost used for claim passwords.
const PasswordCost = 12

func HashPassword(plain string) (string, error) {
	raw, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func ComparePassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
