// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
)

// ErrNotFound is returned (wrapped) by repositories when a keyed record is absent.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned (wrapped) by a Transactor when the store refused the
// transaction because another writer holds it. The caller may retry.
var ErrConflict = errors.New("store conflict")

// Transactor runs a unit of work atomically against the store.
//
// Every read and write performed through the Repositories handed to fn is part
// of one serializable transaction: either all writes commit or none do. A
// non-nil error from fn rolls the transaction back and is returned unchanged.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Repositories groups the repositories bound to one transaction.
type Repositories struct {
	Tasks       TaskRepository
	Assignments AssignmentRepository
	Settings    SettingsRepository
}

// Store is a Transactor that owns a connection and can be closed.
type Store interface {
	Transactor

	// Close releases the underlying connection.
	Close() error
}

// TaskRepository defines the secondary port for task persistence.
type TaskRepository interface {
	// Create persists a new task.
	Create(ctx context.Context, task *TaskRecord) error

	// GetByID retrieves a task by its ID. Returns a wrapped ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*TaskRecord, error)

	// List retrieves all tasks ordered by creation time.
	List(ctx context.Context) ([]*TaskRecord, error)

	// Update overwrites name, subtitle and capacity of an existing task.
	Update(ctx context.Context, task *TaskRecord) error

	// Delete removes a task and its assignments.
	Delete(ctx context.Context, id string) error

	// DeleteAll removes every task, returning how many were removed.
	DeleteAll(ctx context.Context) (int, error)

	// GetNextID returns the next available task ID.
	GetNextID(ctx context.Context) (string, error)
}

// TaskRecord represents a task as stored in persistence.
type TaskRecord struct {
	ID        string
	Name      string
	Subtitle  string // Empty string means null
	Capacity  int
	CreatedAt string
}

// AssignmentRepository defines the secondary port for assignment persistence.
// Assignments are never updated in place.
type AssignmentRepository interface {
	// Insert persists a new assignment.
	Insert(ctx context.Context, assignment *AssignmentRecord) error

	// GetByID retrieves an assignment by its ID. Returns a wrapped ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*AssignmentRecord, error)

	// List retrieves assignments matching the given filters, oldest first.
	List(ctx context.Context, filters AssignmentFilters) ([]*AssignmentRecord, error)

	// CountByTask returns the number of assignments held against a task.
	CountByTask(ctx context.Context, taskID string) (int, error)

	// FindByDevice returns the oldest assignment held by a device, or nil if none.
	FindByDevice(ctx context.Context, deviceID string) (*AssignmentRecord, error)

	// Delete removes one assignment.
	Delete(ctx context.Context, id string) error

	// DeleteByTask removes all assignments for a task, returning how many were removed.
	DeleteByTask(ctx context.Context, taskID string) (int, error)

	// DeleteAll removes every assignment, returning how many were removed.
	DeleteAll(ctx context.Context) (int, error)
}

// AssignmentRecord represents an assignment as stored in persistence.
type AssignmentRecord struct {
	ID              string
	TaskID          string
	ParticipantName string
	DeviceID        string
	CreatedAt       string
}

// AssignmentFilters contains filter options for querying assignments.
type AssignmentFilters struct {
	TaskID   string
	DeviceID string
}

// SettingsRepository defines the secondary port for key/value application settings.
type SettingsRepository interface {
	// Get returns the stored value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// List returns every stored setting.
	List(ctx context.Context) ([]*SettingRecord, error)

	// Put inserts or replaces the value for key.
	Put(ctx context.Context, key, value string) error
}

// SettingRecord represents one settings row.
type SettingRecord struct {
	Key       string
	Value     string
	UpdatedAt string
}
