package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/claimhub/internal/ports/secondary"
)

// TaskRepository implements secondary.TaskRepository with SQLite.
type TaskRepository struct {
	db querier
}

// NewTaskRepository creates a new SQLite task repository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return newTaskRepository(db)
}

func newTaskRepository(q querier) *TaskRepository {
	return &TaskRepository{db: q}
}

// scanTask scans a task row into a TaskRecord.
func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*secondary.TaskRecord, error) {
	var (
		subtitle  sql.NullString
		createdAt time.Time
	)

	record := &secondary.TaskRecord{}
	if err := scanner.Scan(&record.ID, &record.Name, &subtitle, &record.Capacity, &createdAt); err != nil {
		return nil, err
	}

	record.Subtitle = subtitle.String
	record.CreatedAt = createdAt.UTC().Format(time.RFC3339)

	return record, nil
}

const taskSelectCols = "id, name, subtitle, capacity, created_at"

// Create persists a new task.
func (r *TaskRepository) Create(ctx context.Context, task *secondary.TaskRecord) error {
	var subtitle sql.NullString
	if task.Subtitle != "" {
		subtitle = sql.NullString{String: task.Subtitle, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO tasks (id, name, subtitle, capacity, created_at) VALUES (?, ?, ?, ?, ?)",
		task.ID, task.Name, subtitle, task.Capacity, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task by its ID.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*secondary.TaskRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+taskSelectCols+" FROM tasks WHERE id = ?",
		id,
	)

	record, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return record, nil
}

// List retrieves all tasks ordered by creation time.
func (r *TaskRepository) List(ctx context.Context) ([]*secondary.TaskRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+taskSelectCols+" FROM tasks ORDER BY created_at ASC, rowid ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*secondary.TaskRecord
	for rows.Next() {
		record, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, record)
	}

	return tasks, rows.Err()
}

// Update overwrites name, subtitle and capacity of an existing task.
func (r *TaskRepository) Update(ctx context.Context, task *secondary.TaskRecord) error {
	var subtitle sql.NullString
	if task.Subtitle != "" {
		subtitle = sql.NullString{String: task.Subtitle, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET name = ?, subtitle = ?, capacity = ? WHERE id = ?",
		task.Name, subtitle, task.Capacity, task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task %s: %w", task.ID, secondary.ErrNotFound)
	}

	return nil
}

// Delete removes a task. Its assignments go with it (ON DELETE CASCADE).
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// DeleteAll removes every task.
func (r *TaskRepository) DeleteAll(ctx context.Context) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tasks")
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// GetNextID returns the next available task ID.
func (r *TaskRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 6) AS INTEGER)), 0) FROM tasks WHERE id LIKE 'TASK-%'",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next task ID: %w", err)
	}

	return fmt.Sprintf("TASK-%03d", maxID+1), nil
}
