package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies every failure a claim-engine operation can return.
type ErrorCode string

const (
	CodeValidation      ErrorCode = "validation"
	CodeAuthorization   ErrorCode = "authorization"
	CodeNotFound        ErrorCode = "not_found"
	CodeStateConflict   ErrorCode = "state_conflict"
	CodeQuotaExhausted  ErrorCode = "quota_exhausted"
	CodeDuplicateClaim  ErrorCode = "duplicate_claim"
	CodeNoItemAvailable ErrorCode = "no_item_available"
	CodeRetryable       ErrorCode = "retryable"
	CodeInternal        ErrorCode = "internal"
)

// Error is the canonical aggregate error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	// Reason is a machine-readable sub-code, e.g. the eligibility reason
	// behind an authorization failure.
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an aggregate error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// NewReasonError is NewError plus a sub-code.
func NewReasonError(code ErrorCode, op, reason, message string) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Reason:  strings.TrimSpace(reason),
	}
}

// Wrap annotates an existing error with aggregate error semantics.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode checks whether err (or wrapped err) carries the given aggregate code.
func IsCode(err error, code ErrorCode) bool {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return false
	}
	return aggErr.Code == code
}

// CodeOf extracts the aggregate error code when available.
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Code
}

// ReasonOf extracts the sub-code when available.
func ReasonOf(err error) string {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Reason
}

// IsDomain reports whether err is one of the typed engine outcomes rather
// than an infrastructure failure.
func IsDomain(err error) bool {
	switch CodeOf(err) {
	case "", CodeInternal, CodeRetryable:
		return false
	default:
		return true
	}
}
