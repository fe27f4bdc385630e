package apierr

import (
	"errors"
	"fmt"
	"net/http"

	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
)

type Error struct {
	Status int
	Code   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// StatusFor maps an engine error code onto an HTTP status.
func StatusFor(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeAuthorization:
		return http.StatusForbidden
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeStateConflict, domainagg.CodeDuplicateClaim, domainagg.CodeQuotaExhausted:
		return http.StatusConflict
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// From converts any error into an API error. Typed engine errors keep
// their code and reason; anything else becomes an opaque internal error.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeInternal
	}
	return &Error{
		Status: StatusFor(code),
		Code:   string(code),
		Reason: domainagg.ReasonOf(err),
		Err:    err,
	}
}

// PublicMessage is the message safe to show a client. Internal failures
// never leak their cause.
func (e *Error) PublicMessage() string {
	if e == nil {
		return ""
	}
	if e.Status >= http.StatusInternalServerError {
		switch e.Code {
		case string(domainagg.CodeNoItemAvailable):
			return "no item available"
		case string(domainagg.CodeRetryable):
			return "temporarily unavailable, retry later"
		default:
			return "internal error"
		}
	}
	var aggErr *domainagg.Error
	if errors.As(e.Err, &aggErr) && aggErr.Message != "" {
		return aggErr.Message
	}
	return e.Error()
}
