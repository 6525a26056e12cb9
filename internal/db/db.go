package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DSN builds the go-sqlite3 connection string for path.
// Transactions start with BEGIN IMMEDIATE so concurrent writers serialize on
// the database lock instead of failing on upgrade; busy waits are bounded.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL", path)
}

// Open opens the database at path, creating its directory and schema.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := InitSchema(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return conn, nil
}

// SchemaVersion returns the highest applied migration version.
func SchemaVersion(conn *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := conn.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(v.Int64), nil
}
