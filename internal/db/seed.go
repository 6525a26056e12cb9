package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/example/claimhub/internal/core/settings"
)

// SeedDefaults inserts the default settings rows that do not exist yet.
// Existing values are never overwritten.
func SeedDefaults(conn *sql.DB) error {
	for key, value := range settings.Default().Values() {
		if _, err := conn.Exec(
			"INSERT OR IGNORE INTO app_settings (key, value) VALUES (?, ?)",
			key, value,
		); err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
	}
	return nil
}

// SeedFixtures populates the database with development fixtures.
func SeedFixtures(conn *sql.DB) error {
	now := time.Now().UTC()

	tasks := []struct {
		id, name, subtitle string
		capacity           int
	}{
		{"TASK-001", "Welcome desk", "Greet arrivals", 2},
		{"TASK-002", "Kitchen", "Prepare snacks", 4},
		{"TASK-003", "Choir", "Sunday service", 6},
		{"TASK-004", "Clean-up crew", "", 3},
	}
	for i, t := range tasks {
		if _, err := conn.Exec(
			"INSERT INTO tasks (id, name, subtitle, capacity, created_at) VALUES (?, ?, ?, ?, ?)",
			t.id, t.name, sql.NullString{String: t.subtitle, Valid: t.subtitle != ""}, t.capacity,
			now.Add(time.Duration(i)*time.Second),
		); err != nil {
			return fmt.Errorf("seed tasks: %w", err)
		}
	}

	return SeedDefaults(conn)
}
