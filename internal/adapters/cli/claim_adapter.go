package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/example/claimhub/internal/core/claim"
	"github.com/example/claimhub/internal/ports/primary"
)

// ClaimAdapter translates claim and assignment-admin commands to ClaimService calls.
type ClaimAdapter struct {
	claims primary.ClaimService
	tasks  primary.TaskService
	out    io.Writer
}

// NewClaimAdapter creates a new ClaimAdapter. tasks is used to name tasks in messages.
func NewClaimAdapter(claims primary.ClaimService, tasks primary.TaskService, out io.Writer) *ClaimAdapter {
	return &ClaimAdapter{
		claims: claims,
		tasks:  tasks,
		out:    out,
	}
}

// Claim takes a slot in taskID for participant on deviceID.
func (a *ClaimAdapter) Claim(ctx context.Context, taskID, participant, deviceID string) (*primary.Assignment, error) {
	assignment, err := a.claims.TryClaim(ctx, primary.ClaimRequest{
		TaskID:          taskID,
		ParticipantName: participant,
		DeviceID:        deviceID,
	})
	if err != nil {
		return nil, a.explain(ctx, err)
	}

	fmt.Fprintf(a.out, "✓ %s is signed up for %s\n", assignment.ParticipantName, a.taskName(ctx, assignment.TaskID))
	return assignment, nil
}

// explain turns a claim failure into a message fit for a participant.
// The original error stays reachable through errors.Is/As.
func (a *ClaimAdapter) explain(ctx context.Context, err error) error {
	switch claim.KindOf(err) {
	case claim.KindAlreadyAssigned:
		held, _ := claim.AssignedTask(err)
		return &UserError{Message: fmt.Sprintf("you already picked %s", a.taskName(ctx, held)), Err: err}
	case claim.KindTaskFull:
		return &UserError{Message: "this task is full, please pick another one", Err: err}
	case claim.KindTaskNotFound:
		return &UserError{Message: "this task no longer exists, refresh the board", Err: err}
	case claim.KindInvalidInput:
		return &UserError{Message: fmt.Sprintf("invalid request: %v", err), Err: err}
	case claim.KindUnavailable:
		return &UserError{Message: "the sign-up sheet is busy, try again", Err: err}
	default:
		return err
	}
}

func (a *ClaimAdapter) taskName(ctx context.Context, taskID string) string {
	if taskID == "" || a.tasks == nil {
		return taskID
	}
	task, err := a.tasks.GetTask(ctx, taskID)
	if err != nil {
		return taskID
	}
	return fmt.Sprintf("%s (%s)", task.Name, task.ID)
}

// Remove deletes one assignment.
func (a *ClaimAdapter) Remove(ctx context.Context, assignmentID string) error {
	if err := a.claims.RemoveAssignment(ctx, assignmentID); err != nil {
		if errors.Is(err, claim.ErrAssignmentNotFound) {
			return &UserError{Message: fmt.Sprintf("assignment %s not found", assignmentID), Err: err}
		}
		return fmt.Errorf("failed to remove assignment: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Removed assignment %s\n", assignmentID)
	return nil
}

// Clear deletes every assignment of a task.
func (a *ClaimAdapter) Clear(ctx context.Context, taskID string) error {
	n, err := a.claims.ClearAssignments(ctx, taskID)
	if err != nil {
		if errors.Is(err, claim.ErrTaskNotFound) {
			return &UserError{Message: fmt.Sprintf("task %s not found", taskID), Err: err}
		}
		return fmt.Errorf("failed to clear assignments: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Cleared %d assignment(s) from %s\n", n, taskID)
	return nil
}

// Reset deletes every task and every assignment.
func (a *ClaimAdapter) Reset(ctx context.Context) error {
	if err := a.claims.ResetAll(ctx); err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}

	fmt.Fprintln(a.out, "✓ All tasks and assignments removed")
	return nil
}

// UserError carries a message meant to be shown as-is.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }
func (e *UserError) Unwrap() error { return e.Err }
