package primary

import "context"

// TaskService defines the primary port for task administration.
type TaskService interface {
	// CreateTask creates a new task.
	CreateTask(ctx context.Context, req CreateTaskRequest) (*CreateTaskResponse, error)

	// GetTask retrieves a task by ID.
	GetTask(ctx context.Context, taskID string) (*Task, error)

	// ListTasks lists all tasks, oldest first.
	ListTasks(ctx context.Context) ([]*Task, error)

	// UpdateTask updates a task's name, subtitle and/or capacity.
	UpdateTask(ctx context.Context, req UpdateTaskRequest) error

	// DeleteTask deletes a task together with its assignments.
	DeleteTask(ctx context.Context, taskID string) error

	// ListAssignments lists the assignments held against a task.
	ListAssignments(ctx context.Context, taskID string) ([]*Assignment, error)
}

// CreateTaskRequest contains parameters for creating a task.
type CreateTaskRequest struct {
	Name     string
	Subtitle string
	Capacity int
}

// CreateTaskResponse contains the result of creating a task.
type CreateTaskResponse struct {
	TaskID string
	Task   *Task
}

// UpdateTaskRequest contains parameters for updating a task.
// Empty strings and a nil Capacity leave the field unchanged.
type UpdateTaskRequest struct {
	TaskID   string
	Name     string
	Subtitle string
	Capacity *int
}

// Task represents a task entity at the port boundary.
type Task struct {
	ID        string
	Name      string
	Subtitle  string
	Capacity  int
	CreatedAt string
}
