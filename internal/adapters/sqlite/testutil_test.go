// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/claimhub/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// The pool is pinned to one connection because every :memory: connection is
// a separate database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	// Use the authoritative schema from schema.go
	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	if err := db.SeedDefaults(testDB); err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// setupFileDB opens a file-backed database through db.Open so concurrent
// tests get real multi-connection locking semantics.
func setupFileDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := db.Open(filepath.Join(t.TempDir(), "claimhub.db"))
	if err != nil {
		t.Fatalf("failed to open file db: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedTask inserts a test task and returns its ID.
func seedTask(t *testing.T, db *sql.DB, id, name string, capacity int) string {
	t.Helper()
	if id == "" {
		id = "TASK-001"
	}
	if name == "" {
		name = "Test Task"
	}
	if capacity == 0 {
		capacity = 2
	}
	_, err := db.Exec("INSERT INTO tasks (id, name, capacity) VALUES (?, ?, ?)", id, name, capacity)
	if err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}
	return id
}

// seedAssignment inserts a test assignment and returns its ID.
func seedAssignment(t *testing.T, db *sql.DB, id, taskID, deviceID string) string {
	t.Helper()
	if taskID == "" {
		taskID = "TASK-001"
	}
	_, err := db.Exec(
		"INSERT INTO assignments (id, task_id, participant_name, device_id) VALUES (?, ?, ?, ?)",
		id, taskID, "Participant "+id, deviceID,
	)
	if err != nil {
		t.Fatalf("failed to seed assignment: %v", err)
	}
	return id
}
