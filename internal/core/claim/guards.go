// Package claim contains the pure decision logic of the assignment engine.
// Guards are pure functions that evaluate preconditions without side effects;
// the service evaluates them inside the store transaction that commits the claim.
package claim

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the longest participant name accepted, in runes.
const MaxNameLength = 200

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Kind    Kind
	TaskID  string
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return &Error{Kind: r.Kind, TaskID: r.TaskID, Reason: r.Reason}
}

// RequestContext provides context for request validation.
type RequestContext struct {
	TaskID          string
	ParticipantName string
	DeviceID        string
}

// ClaimContext is the snapshot a claim is decided against. Every field is read
// inside the same transaction that inserts the assignment.
type ClaimContext struct {
	TaskID        string
	TaskExists    bool
	Capacity      int
	AssignedCount int
	DedupEnabled  bool
	// DeviceTaskID is the task the device already holds; empty when none or
	// when dedup is disabled.
	DeviceTaskID string
}

// NormalizeName trims surrounding whitespace from a participant name.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// ValidateRequest evaluates whether a claim request is well formed.
// Rules:
// - Task ID must be non-empty
// - Participant name must be non-empty after trimming and at most MaxNameLength runes
// - Device ID must be non-empty after trimming
func ValidateRequest(ctx RequestContext) GuardResult {
	if strings.TrimSpace(ctx.TaskID) == "" {
		return GuardResult{Kind: KindInvalidInput, Reason: "task id is required"}
	}

	name := NormalizeName(ctx.ParticipantName)
	if name == "" {
		return GuardResult{Kind: KindInvalidInput, TaskID: ctx.TaskID, Reason: "participant name is required"}
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return GuardResult{
			Kind:   KindInvalidInput,
			TaskID: ctx.TaskID,
			Reason: fmt.Sprintf("participant name exceeds %d characters", MaxNameLength),
		}
	}

	if strings.TrimSpace(ctx.DeviceID) == "" {
		return GuardResult{Kind: KindInvalidInput, TaskID: ctx.TaskID, Reason: "device id is required"}
	}

	return GuardResult{Allowed: true}
}

// CanClaim evaluates whether a claim may commit.
// Rules, in order:
// - Task must exist
// - With dedup enabled, the device must not already hold a slot
// - The task must have a free slot (count < capacity)
func CanClaim(ctx ClaimContext) GuardResult {
	if !ctx.TaskExists {
		return GuardResult{
			Kind:   KindTaskNotFound,
			TaskID: ctx.TaskID,
			Reason: fmt.Sprintf("task %s not found", ctx.TaskID),
		}
	}

	if ctx.DedupEnabled && ctx.DeviceTaskID != "" {
		return GuardResult{
			Kind:   KindAlreadyAssigned,
			TaskID: ctx.DeviceTaskID,
			Reason: fmt.Sprintf("device already assigned to task %s", ctx.DeviceTaskID),
		}
	}

	if ctx.AssignedCount >= ctx.Capacity {
		return GuardResult{
			Kind:   KindTaskFull,
			TaskID: ctx.TaskID,
			Reason: fmt.Sprintf("task %s is full (%d/%d)", ctx.TaskID, ctx.AssignedCount, ctx.Capacity),
		}
	}

	return GuardResult{Allowed: true}
}
