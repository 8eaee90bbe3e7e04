package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the claim error taxonomy. Use errors.Is against these;
// the concrete values carry diagnostics.
var (
	ErrInvalidTransition       = errors.New("invalid transition")
	ErrTerminalStateViolation  = errors.New("terminal state violation")
	ErrPayloadValidationFailed = errors.New("payload validation failed")
	ErrInvalidEventData        = errors.New("invalid event data")
	ErrConflict                = errors.New("claim conflict")
	ErrNotFound                = errors.New("claim not found")
)

// TransitionError reports which lifecycle rule rejected a request.
type TransitionError struct {
	Kind   error
	State  ClaimState
	Action string
	Actor  Actor
	Field  string
	Reason string
}

func (e *TransitionError) Error() string {
	parts := []string{e.Kind.Error()}
	if e.State != "" {
		parts = append(parts, "state="+string(e.State))
	}
	if e.Action != "" {
		parts = append(parts, "action="+e.Action)
	}
	if e.Actor != "" {
		parts = append(parts, "actor="+string(e.Actor))
	}
	if e.Field != "" {
		parts = append(parts, "field="+e.Field)
	}
	msg := strings.Join(parts, " ")
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is matches the sentinel held in Kind.
func (e *TransitionError) Is(target error) bool {
	return e.Kind == target
}

// Details returns the populated diagnostic fields.
func (e *TransitionError) Details() map[string]any {
	details := map[string]any{}
	if e.State != "" {
		details["state"] = e.State
	}
	if e.Action != "" {
		details["action"] = e.Action
	}
	if e.Actor != "" {
		details["actor"] = e.Actor
	}
	if e.Field != "" {
		details["field"] = e.Field
	}
	if e.Reason != "" {
		details["reason"] = e.Reason
	}
	return details
}

// ConflictError is returned by a save whose snapshot is stale.
type ConflictError struct {
	ClaimID  string
	Expected int64
	Actual   int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("claim %s changed concurrently: expected version %d, stored version %d", e.ClaimID, e.Expected, e.Actual)
}

// Is matches ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NotFoundError wraps ErrNotFound with the missing claim id.
type NotFoundError struct {
	ClaimID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("claim %s not found", e.ClaimID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
