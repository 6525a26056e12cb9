package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/example/claimhub/internal/core/settings"
)

func countRows(t *testing.T, conn *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	return n
}

func TestOpen_FreshInstall(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "nested", "claimhub.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()

	if n := countRows(t, conn, "SELECT COUNT(*) FROM schema_version"); n != len(migrations) {
		t.Errorf("expected %d recorded migrations, got %d", len(migrations), n)
	}
	if n := countRows(t, conn, "SELECT COUNT(*) FROM app_settings"); n != 3 {
		t.Errorf("expected 3 default settings, got %d", n)
	}

	var dedup string
	if err := conn.QueryRow("SELECT value FROM app_settings WHERE key = ?", settings.KeyDedupEnabled).Scan(&dedup); err != nil {
		t.Fatalf("read dedup: %v", err)
	}
	if dedup != "true" {
		t.Errorf("expected dedup default true, got %q", dedup)
	}
}

func TestOpen_ReopenKeepsSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claimhub.db")
	conn, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := conn.Exec("UPDATE app_settings SET value = 'false' WHERE key = ?", settings.KeyDedupEnabled); err != nil {
		t.Fatalf("update: %v", err)
	}
	conn.Close()

	conn, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer conn.Close()

	var dedup string
	if err := conn.QueryRow("SELECT value FROM app_settings WHERE key = ?", settings.KeyDedupEnabled).Scan(&dedup); err != nil {
		t.Fatalf("read dedup: %v", err)
	}
	if dedup != "false" {
		t.Errorf("seed overwrote existing value: %q", dedup)
	}
}

func TestRunMigrations_UpgradesFromV1(t *testing.T) {
	conn, err := sql.Open("sqlite3", DSN(filepath.Join(t.TempDir(), "old.db")))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	if err := createVersionTable(conn); err != nil {
		t.Fatal(err)
	}
	tx, err := conn.Begin()
	if err != nil {
		t.Fatal(err)
	}
	if err := migrationV1(tx); err != nil {
		t.Fatalf("migrationV1: %v", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (1)"); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	if err := InitSchema(conn); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	if n := countRows(t, conn, "SELECT MAX(version) FROM schema_version"); n != 3 {
		t.Errorf("expected version 3, got %d", n)
	}
	if n := countRows(t, conn, "SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_assignments_device'"); n != 1 {
		t.Error("device index missing after upgrade")
	}
	if n := countRows(t, conn, "SELECT COUNT(*) FROM app_settings"); n != 3 {
		t.Errorf("expected seeded settings after upgrade, got %d", n)
	}
}

func TestSeedFixtures(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "claimhub.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()

	if err := SeedFixtures(conn); err != nil {
		t.Fatalf("SeedFixtures failed: %v", err)
	}
	if n := countRows(t, conn, "SELECT COUNT(*) FROM tasks"); n != 4 {
		t.Errorf("expected 4 fixture tasks, got %d", n)
	}
}

func TestSchemaVersion(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "claimhub.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()

	v, err := SchemaVersion(conn)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if want := migrations[len(migrations)-1].Version; v != want {
		t.Errorf("expected version %d, got %d", want, v)
	}
}
