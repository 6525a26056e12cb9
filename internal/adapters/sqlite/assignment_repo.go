package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/claimhub/internal/ports/secondary"
)

// AssignmentRepository implements secondary.AssignmentRepository with SQLite.
type AssignmentRepository struct {
	db querier
}

// NewAssignmentRepository creates a new SQLite assignment repository.
func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return newAssignmentRepository(db)
}

func newAssignmentRepository(q querier) *AssignmentRepository {
	return &AssignmentRepository{db: q}
}

func scanAssignment(scanner interface {
	Scan(dest ...any) error
}) (*secondary.AssignmentRecord, error) {
	var createdAt time.Time

	record := &secondary.AssignmentRecord{}
	err := scanner.Scan(&record.ID, &record.TaskID, &record.ParticipantName, &record.DeviceID, &createdAt)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = createdAt.UTC().Format(time.RFC3339Nano)

	return record, nil
}

const assignmentSelectCols = "id, task_id, participant_name, device_id, created_at"

// Insert persists a new assignment. CreatedAt, when set, must be RFC3339.
func (r *AssignmentRepository) Insert(ctx context.Context, a *secondary.AssignmentRecord) error {
	createdAt := time.Now().UTC()
	if a.CreatedAt != "" {
		parsed, err := time.Parse(time.RFC3339Nano, a.CreatedAt)
		if err != nil {
			return fmt.Errorf("invalid created_at %q: %w", a.CreatedAt, err)
		}
		createdAt = parsed.UTC()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO assignments (id, task_id, participant_name, device_id, created_at) VALUES (?, ?, ?, ?, ?)",
		a.ID, a.TaskID, a.ParticipantName, a.DeviceID, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}

	return nil
}

// GetByID retrieves an assignment by its ID.
func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*secondary.AssignmentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+assignmentSelectCols+" FROM assignments WHERE id = ?",
		id,
	)

	record, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("assignment %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return record, nil
}

// List retrieves assignments matching the given filters, oldest first.
func (r *AssignmentRepository) List(ctx context.Context, filters secondary.AssignmentFilters) ([]*secondary.AssignmentRecord, error) {
	query := "SELECT " + assignmentSelectCols + " FROM assignments WHERE 1=1"
	args := []any{}

	if filters.TaskID != "" {
		query += " AND task_id = ?"
		args = append(args, filters.TaskID)
	}

	if filters.DeviceID != "" {
		query += " AND device_id = ?"
		args = append(args, filters.DeviceID)
	}

	query += " ORDER BY created_at ASC, rowid ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*secondary.AssignmentRecord
	for rows.Next() {
		record, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, record)
	}

	return assignments, rows.Err()
}

// CountByTask returns the number of assignments held against a task.
func (r *AssignmentRepository) CountByTask(ctx context.Context, taskID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM assignments WHERE task_id = ?",
		taskID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return count, nil
}

// FindByDevice returns the oldest assignment held by a device, or nil if none.
func (r *AssignmentRepository) FindByDevice(ctx context.Context, deviceID string) (*secondary.AssignmentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+assignmentSelectCols+" FROM assignments WHERE device_id = ? ORDER BY created_at ASC, rowid ASC LIMIT 1",
		deviceID,
	)

	record, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find assignment by device: %w", err)
	}

	return record, nil
}

// Delete removes one assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("assignment %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// DeleteByTask removes all assignments for a task.
func (r *AssignmentRepository) DeleteByTask(ctx context.Context, taskID string) (int, error) {
	return r.deleteWhere(ctx, "DELETE FROM assignments WHERE task_id = ?", taskID)
}

// DeleteAll removes every assignment.
func (r *AssignmentRepository) DeleteAll(ctx context.Context) (int, error) {
	return r.deleteWhere(ctx, "DELETE FROM assignments")
}

func (r *AssignmentRepository) deleteWhere(ctx context.Context, query string, args ...any) (int, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete assignments: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}
