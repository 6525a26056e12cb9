package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/claimhub/internal/ports/secondary"
)

// SettingsRepository implements secondary.SettingsRepository with SQLite.
type SettingsRepository struct {
	db querier
}

// NewSettingsRepository creates a new SQLite settings repository.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return newSettingsRepository(db)
}

func newSettingsRepository(q querier) *SettingsRepository {
	return &SettingsRepository{db: q}
}

// Get returns the stored value for key and whether it exists.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM app_settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

// List returns every stored setting ordered by key.
func (r *SettingsRepository) List(ctx context.Context) ([]*secondary.SettingRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key, value, updated_at FROM app_settings ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var settings []*secondary.SettingRecord
	for rows.Next() {
		var (
			record    secondary.SettingRecord
			updatedAt time.Time
		)
		if err := rows.Scan(&record.Key, &record.Value, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		record.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
		settings = append(settings, &record)
	}

	return settings, rows.Err()
}

// Put inserts or replaces the value for key.
func (r *SettingsRepository) Put(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO app_settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to put setting %s: %w", key, err)
	}
	return nil
}
