package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/claimdesk/claim-service/internal/domain"
)

// Error codes returned in API error bodies.
const (
	CodeInvalidTransition       = "INVALID_TRANSITION"
	CodeTerminalStateViolation  = "TERMINAL_STATE_VIOLATION"
	CodePayloadValidationFailed = "PAYLOAD_VALIDATION_FAILED"
	CodeInvalidEventData        = "INVALID_EVENT_DATA"
	CodeConflict                = "CONFLICT"
	CodeNotFound                = "NOT_FOUND"
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeForbidden               = "FORBIDDEN"
	CodeTimeout                 = "TIMEOUT"
	CodeInternal                = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts claim and transport errors to a DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var transitionErr *domain.TransitionError
	if errors.As(err, &transitionErr) {
		code, status := transitionStatus(transitionErr.Kind)
		return &DomainError{
			Code:       code,
			Message:    transitionErr.Error(),
			HTTPStatus: status,
			Details:    transitionErr.Details(),
			Err:        err,
		}
	}

	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		return &DomainError{
			Code:       CodeConflict,
			Message:    "claim was modified concurrently; reload and retry",
			HTTPStatus: http.StatusConflict,
			Details: map[string]any{
				"claim_id":         conflictErr.ClaimID,
				"expected_version": conflictErr.Expected,
				"actual_version":   conflictErr.Actual,
			},
			Err: err,
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{Code: fiberCode(fiberErr.Code), Message: fiberErr.Message, HTTPStatus: fiberErr.Code, Err: err}
	}

	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		var notFound *domain.NotFoundError
		details := map[string]any{}
		if errors.As(err, &notFound) {
			details["claim_id"] = notFound.ClaimID
		}
		return &DomainError{Code: CodeNotFound, Message: "claim not found", HTTPStatus: http.StatusNotFound, Details: details, Err: err}
	case errors.Is(err, domain.ErrConflict):
		return &DomainError{Code: CodeConflict, Message: err.Error(), HTTPStatus: http.StatusConflict, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &DomainError{Code: CodeTimeout, Message: "request timed out", HTTPStatus: http.StatusGatewayTimeout, Err: err}
	}

	return NewInternalError(err).(*DomainError)
}

func transitionStatus(kind error) (string, int) {
	switch kind {
	case domain.ErrInvalidTransition:
		return CodeInvalidTransition, http.StatusConflict
	case domain.ErrTerminalStateViolation:
		return CodeTerminalStateViolation, http.StatusConflict
	case domain.ErrPayloadValidationFailed:
		return CodePayloadValidationFailed, http.StatusUnprocessableEntity
	case domain.ErrInvalidEventData:
		return CodeInvalidEventData, http.StatusBadRequest
	default:
		return CodeInternal, http.StatusInternalServerError
	}
}

func fiberCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusRequestTimeout:
		return CodeTimeout
	}
	if status >= 500 {
		return CodeInternal
	}
	return CodeValidationFailed
}
