package claim

import (
	"errors"
	"fmt"
)

// Kind classifies the outcome of a claim decision.
type Kind string

const (
	KindTaskFull        Kind = "task_full"
	KindAlreadyAssigned Kind = "already_assigned"
	KindTaskNotFound    Kind = "task_not_found"
	KindInvalidInput    Kind = "invalid_input"
	KindUnavailable     Kind = "unavailable"

	// KindAssignmentNotFound is returned by admin removal of an unknown assignment.
	KindAssignmentNotFound Kind = "assignment_not_found"
)

// Category groups kinds by how callers should react.
type Category string

const (
	// CategoryContention is an expected race-loser outcome, not a fault.
	CategoryContention Category = "contention"
	// CategoryValidation is a caller error or stale reference; do not retry.
	CategoryValidation Category = "validation"
	// CategoryInfrastructure means the store could not decide; a retry may succeed.
	CategoryInfrastructure Category = "infrastructure"
)

// Category returns the category of the kind.
func (k Kind) Category() Category {
	switch k {
	case KindTaskFull, KindAlreadyAssigned:
		return CategoryContention
	case KindTaskNotFound, KindInvalidInput, KindAssignmentNotFound:
		return CategoryValidation
	default:
		return CategoryInfrastructure
	}
}

// Error is the typed failure returned by the assignment engine.
type Error struct {
	Kind Kind
	// TaskID is the requested task, or for KindAlreadyAssigned the task the
	// device already holds.
	TaskID string
	Reason string
	Err    error
}

// Sentinels for errors.Is. Matching compares Kind only.
var (
	ErrTaskFull        = &Error{Kind: KindTaskFull}
	ErrAlreadyAssigned = &Error{Kind: KindAlreadyAssigned}
	ErrTaskNotFound    = &Error{Kind: KindTaskNotFound}
	ErrInvalidInput    = &Error{Kind: KindInvalidInput}
	ErrUnavailable     = &Error{Kind: KindUnavailable}

	ErrAssignmentNotFound = &Error{Kind: KindAssignmentNotFound}
)

func (e *Error) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Unavailable wraps an infrastructure failure.
func Unavailable(reason string, err error) *Error {
	return &Error{Kind: KindUnavailable, Reason: reason, Err: err}
}

// KindOf returns the kind of err, or "" if err is not a claim error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsContention reports whether err is a TaskFull or AlreadyAssigned outcome.
func IsContention(err error) bool {
	k := KindOf(err)
	return k == KindTaskFull || k == KindAlreadyAssigned
}

// AssignedTask returns the task a device already holds when err is AlreadyAssigned.
func AssignedTask(err error) (string, bool) {
	var ce *Error
	if errors.As(err, &ce) && ce.Kind == KindAlreadyAssigned {
		return ce.TaskID, true
	}
	return "", false
}
