package eligibility

import (
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
)

// Reason names the first check a claim attempt failed.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonUserBanned       Reason = "user_banned"
	ReasonProjectInactive  Reason = "project_inactive"
	ReasonNotStarted       Reason = "not_started"
	ReasonEnded            Reason = "ended"
	ReasonQuotaExhausted   Reason = "quota_exhausted"
	ReasonIdentityRequired Reason = "identity_required"
	ReasonTrustLevelTooLow Reason = "trust_level_too_low"
	ReasonRiskScoreTooLow  Reason = "risk_score_too_low"
	ReasonPasswordRequired Reason = "password_required"
	ReasonPasswordMismatch Reason = "password_mismatch"
	// ReasonSameIP is raised outside the gate, by the same-IP guard.
	ReasonSameIP Reason = "same_ip"
)

// Code maps a reason onto the engine's error taxonomy.
func (r Reason) Code() domainagg.ErrorCode {
	switch r {
	case ReasonNone:
		return ""
	case ReasonProjectInactive, ReasonNotStarted, ReasonEnded:
		return domainagg.CodeStateConflict
	case ReasonQuotaExhausted:
		return domainagg.CodeQuotaExhausted
	default:
		return domainagg.CodeAuthorization
	}
}

func (r Reason) Message() string {
	switch r {
	case ReasonUserBanned:
		return "user is banned"
	case ReasonProjectInactive:
		return "project is not active"
	case ReasonNotStarted:
		return "project has not started yet"
	case ReasonEnded:
		return "project has ended"
	case ReasonQuotaExhausted:
		return "project quota is exhausted"
	case ReasonIdentityRequired:
		return "project requires a verified identity"
	case ReasonTrustLevelTooLow:
		return "trust level is below the project minimum"
	case ReasonRiskScoreTooLow:
		return "risk score is below the project minimum"
	case ReasonPasswordRequired:
		return "project requires a claim password"
	case ReasonPasswordMismatch:
		return "claim password does not match"
	case ReasonSameIP:
		return "another account already claimed from this address"
	default:
		return ""
	}
}

// Err converts a failing reason into a typed error, or nil for ReasonNone.
func (r Reason) Err(op string) error {
	if r == ReasonNone {
		return nil
	}
	return domainagg.NewReasonError(r.Code(), op, string(r), r.Message())
}
