package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_tasks_and_assignments",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_app_settings",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "add_assignment_device_index",
		Up:      migrationV3,
	},
}

func createVersionTable(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// RunMigrations applies every migration newer than the recorded schema version.
func RunMigrations(conn *sql.DB) error {
	if err := createVersionTable(conn); err != nil {
		return err
	}

	// Get current schema version
	var currentVersion int
	err := conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return SeedDefaults(conn)
}

// migrationV1 creates the task and assignment tables.
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			subtitle TEXT,
			capacity INTEGER NOT NULL CHECK(capacity >= 1),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS assignments (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			participant_name TEXT NOT NULL,
			device_id TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_assignments_task ON assignments(task_id);
	`)
	return err
}

// migrationV2 adds the key/value settings table.
func migrationV2(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// migrationV3 indexes assignments by device for the dedup lookup.
func migrationV3(tx *sql.Tx) error {
	_, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_assignments_device ON assignments(device_id)")
	return err
}
