// Package task contains the pure business logic for task administration.
// Guards are pure functions that evaluate preconditions without side effects.
package task

import (
	"fmt"
	"strings"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// CreateTaskContext provides context for task creation guards.
type CreateTaskContext struct {
	Name     string
	Capacity int
}

// UpdateTaskContext provides context for task update guards.
type UpdateTaskContext struct {
	TaskID     string
	TaskExists bool
	Capacity   *int // nil when unchanged
}

// CanCreateTask evaluates whether a task can be created.
// Rules:
// - Name must be non-empty
// - Capacity must be at least 1
func CanCreateTask(ctx CreateTaskContext) GuardResult {
	if strings.TrimSpace(ctx.Name) == "" {
		return GuardResult{Allowed: false, Reason: "task name is required"}
	}

	if ctx.Capacity < 1 {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("capacity must be at least 1 (got %d)", ctx.Capacity),
		}
	}

	return GuardResult{Allowed: true}
}

// CanUpdateTask evaluates whether a task can be updated.
// Rules:
// - Task must exist
// - Capacity, when changed, must be at least 1. Lowering it below the current
//   assignment count is allowed; existing assignments are kept.
func CanUpdateTask(ctx UpdateTaskContext) GuardResult {
	if !ctx.TaskExists {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("task %s not found", ctx.TaskID)}
	}

	if ctx.Capacity != nil && *ctx.Capacity < 1 {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("capacity must be at least 1 (got %d)", *ctx.Capacity),
		}
	}

	return GuardResult{Allowed: true}
}
