package primary

import "context"

// ViewService defines the primary port for read-only projections.
type ViewService interface {
	// Board reads the current state and projects it for an observer.
	// deviceID may be empty for operator views.
	Board(ctx context.Context, deviceID string) (*Board, error)

	// Watch calls fn with a fresh Board now and after every change
	// notification until ctx is done.
	Watch(ctx context.Context, deviceID string, fn func(*Board)) error
}

// Board is the aggregate an observer renders.
type Board struct {
	Title         string
	Instructions  string
	DedupEnabled  bool
	Tasks         []TaskState
	Device        DeviceState
	TotalCapacity int
	TotalClaimed  int
}

// TaskState is the derived, advisory state of one task.
type TaskState struct {
	TaskID    string
	Name      string
	Subtitle  string
	Capacity  int
	Claimed   int
	Remaining int
	IsFull    bool
}

// DeviceState tells a device whether it already holds a slot.
type DeviceState struct {
	DeviceID         string
	AssignedTaskID   string // empty when the device holds no slot
	AssignedTaskName string
}
