// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/claimhub/internal/ports/primary"
)

// TaskAdapter is a thin adapter that translates CLI operations to TaskService calls.
// It depends only on the TaskService interface, enabling easy testing with mocks.
type TaskAdapter struct {
	service primary.TaskService
	out     io.Writer
}

// NewTaskAdapter creates a new TaskAdapter with the given service.
func NewTaskAdapter(service primary.TaskService, out io.Writer) *TaskAdapter {
	return &TaskAdapter{
		service: service,
		out:     out,
	}
}

// Create creates a new task.
func (a *TaskAdapter) Create(ctx context.Context, name, subtitle string, capacity int) error {
	resp, err := a.service.CreateTask(ctx, primary.CreateTaskRequest{
		Name:     name,
		Subtitle: subtitle,
		Capacity: capacity,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Created task %s: %s (%d slots)\n", resp.TaskID, resp.Task.Name, resp.Task.Capacity)
	return nil
}

// List lists every task.
func (a *TaskAdapter) List(ctx context.Context) error {
	tasks, err := a.service.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-10s %-8s %s\n", "ID", "SLOTS", "NAME")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, t := range tasks {
		name := t.Name
		if t.Subtitle != "" {
			name = fmt.Sprintf("%s (%s)", t.Name, t.Subtitle)
		}
		fmt.Fprintf(a.out, "%-10s %-8d %s\n", t.ID, t.Capacity, name)
	}
	fmt.Fprintln(a.out)

	return nil
}

// Show displays one task and the assignments held against it.
func (a *TaskAdapter) Show(ctx context.Context, taskID string) (*primary.Task, error) {
	task, err := a.service.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	assignments, err := a.service.ListAssignments(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	fmt.Fprintf(a.out, "\nTask:     %s\n", task.ID)
	fmt.Fprintf(a.out, "Name:     %s\n", task.Name)
	if task.Subtitle != "" {
		fmt.Fprintf(a.out, "Subtitle: %s\n", task.Subtitle)
	}
	fmt.Fprintf(a.out, "Slots:    %d/%d taken\n", len(assignments), task.Capacity)
	fmt.Fprintf(a.out, "Created:  %s\n", task.CreatedAt)

	if len(assignments) > 0 {
		fmt.Fprintln(a.out, "\nParticipants:")
		for _, as := range assignments {
			fmt.Fprintf(a.out, "  - %s [%s]\n", as.ParticipantName, as.ID)
		}
	}
	fmt.Fprintln(a.out)

	return task, nil
}

// Update updates a task's name, subtitle and/or capacity.
func (a *TaskAdapter) Update(ctx context.Context, taskID, name, subtitle string, capacity *int) error {
	if name == "" && subtitle == "" && capacity == nil {
		return fmt.Errorf("must specify at least --name, --subtitle or --capacity")
	}

	err := a.service.UpdateTask(ctx, primary.UpdateTaskRequest{
		TaskID:   taskID,
		Name:     name,
		Subtitle: subtitle,
		Capacity: capacity,
	})
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Task %s updated\n", taskID)
	return nil
}

// Delete deletes a task and its assignments.
func (a *TaskAdapter) Delete(ctx context.Context, taskID string) error {
	task, err := a.service.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}

	if err := a.service.DeleteTask(ctx, taskID); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Deleted task %s: %s\n", task.ID, task.Name)
	return nil
}

// Assignments lists assignments, for one task or for all tasks when taskID is empty.
func (a *TaskAdapter) Assignments(ctx context.Context, taskID string) error {
	assignments, err := a.service.ListAssignments(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to list assignments: %w", err)
	}

	if len(assignments) == 0 {
		fmt.Fprintln(a.out, "No assignments found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-38s %-10s %-20s %s\n", "ID", "TASK", "PARTICIPANT", "CREATED")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────────────")
	for _, as := range assignments {
		fmt.Fprintf(a.out, "%-38s %-10s %-20s %s\n", as.ID, as.TaskID, as.ParticipantName, as.CreatedAt)
	}
	fmt.Fprintln(a.out)

	return nil
}
