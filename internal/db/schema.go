package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Tests load it via
// GetSchemaSQL() instead of hardcoding CREATE TABLE statements, so repository
// code referencing a missing column fails immediately with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Tasks (capacity-limited units participants claim a slot in)
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	subtitle TEXT,
	capacity INTEGER NOT NULL CHECK(capacity >= 1),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Assignments (one participant's slot in one task; never updated in place)
CREATE TABLE IF NOT EXISTS assignments (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL,
	participant_name TEXT NOT NULL,
	device_id TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_assignments_task ON assignments(task_id);
CREATE INDEX IF NOT EXISTS idx_assignments_device ON assignments(device_id);

-- App settings (dedup toggle and display strings)
CREATE TABLE IF NOT EXISTS app_settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// InitSchema creates the database schema and default settings.
func InitSchema(conn *sql.DB) error {
	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		// schema_version table exists - run any pending migrations
		return RunMigrations(conn)
	}

	// Fresh install - create modern schema directly and mark all migrations applied
	if _, err := conn.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := createVersionTable(conn); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := conn.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}

	return SeedDefaults(conn)
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
