// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the CLI and other callers drive the core.
package primary

import "context"

// ClaimService defines the primary port for the assignment engine.
type ClaimService interface {
	// TryClaim atomically decides whether a participant on a device may take a
	// slot in a task and, on success, records the assignment.
	// Failures are *claim.Error values (TaskFull, AlreadyAssigned, TaskNotFound,
	// InvalidInput, Unavailable).
	TryClaim(ctx context.Context, req ClaimRequest) (*Assignment, error)

	// RemoveAssignment deletes one assignment.
	RemoveAssignment(ctx context.Context, assignmentID string) error

	// ClearAssignments deletes every assignment of a task.
	ClearAssignments(ctx context.Context, taskID string) (int, error)

	// ResetAll deletes every assignment and every task.
	ResetAll(ctx context.Context) error
}

// ClaimRequest contains parameters for claiming a slot.
type ClaimRequest struct {
	TaskID          string
	ParticipantName string
	DeviceID        string
}

// Assignment represents an assignment entity at the port boundary.
type Assignment struct {
	ID              string
	TaskID          string
	ParticipantName string
	DeviceID        string
	CreatedAt       string
}
