package authz

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors below unwrap to these so callers can classify
// with errors.Is without losing the structured detail.
var (
	ErrForbidden      = errors.New("forbidden")
	ErrValidation     = errors.New("invalid request")
	ErrRejectedFields = errors.New("fields not writable")
	ErrInvalidState   = errors.New("entity state disallows edit")
)

// ForbiddenError is an authorization denial carrying the action, entity, and
// policy reason.
type ForbiddenError struct {
	Entity Entity `json:"entity"`
	Action Action `json:"action"`
	Reason string `json:"reason"`
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s %s: %s", e.Action, e.Entity, e.Reason)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// Forbidden builds a ForbiddenError for the given denial.
func Forbidden(entity Entity, action Action, reason string) error {
	return &ForbiddenError{Entity: entity, Action: action, Reason: reason}
}

// ValidationError reports an unknown filter/sort field or malformed page
// bounds in a listing request.
type ValidationError struct {
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request: %s", e.Reason)
	}
	return fmt.Sprintf("invalid request: field %q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RejectedFieldsError is a mutation guard denial enumerating every requested
// field outside the principal's writable set. The guard never silently drops
// fields; the whole update fails.
type RejectedFieldsError struct {
	Entity Entity   `json:"entity"`
	Fields []string `json:"fields"`
}

func (e *RejectedFieldsError) Error() string {
	return fmt.Sprintf("fields not writable on %s: %s", e.Entity, strings.Join(e.Fields, ", "))
}

func (e *RejectedFieldsError) Unwrap() error { return ErrRejectedFields }

// InvalidStateError reports a mutation disallowed by the entity's current
// lifecycle state, e.g. a candidate editing an application that already left
// pending.
type InvalidStateError struct {
	Entity Entity `json:"entity"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s in status %q: %s", e.Entity, e.Status, e.Reason)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }
