package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, DriverSQLite, cfg.Database.Driver)
	require.Equal(t, filepath.Join(dir, "claimhub.db"), cfg.Database.Path)
	require.Equal(t, DriverMemory, cfg.Broadcast.Driver)
	require.Equal(t, "claimhub.events", cfg.Broadcast.SubjectPrefix)
	require.Equal(t, 64, cfg.Broadcast.Buffer)
	require.Equal(t, 5, cfg.Claim.MaxAttempts)
	require.Equal(t, 20*time.Millisecond, cfg.Claim.RetryBackoff)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "text", cfg.Log.Format)
	require.Empty(t, cfg.Metrics.Addr)
	require.Empty(t, cfg.Tracing.File)
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()

	cfg := Default(dir)
	cfg.Broadcast.Driver = DriverNATS
	cfg.Broadcast.NATSURL = "nats://127.0.0.1:4222"
	cfg.Claim.MaxAttempts = 9
	cfg.Log.Format = "json"
	cfg.Metrics.Addr = ":9100"
	cfg.Actor = "organizer"

	require.NoError(t, SaveConfig(dir, cfg))

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	require.Equal(t, DriverNATS, loaded.Broadcast.Driver)
	require.Equal(t, "nats://127.0.0.1:4222", loaded.Broadcast.NATSURL)
	require.Equal(t, 9, loaded.Claim.MaxAttempts)
	require.Equal(t, 20*time.Millisecond, loaded.Claim.RetryBackoff)
	require.Equal(t, "json", loaded.Log.Format)
	require.Equal(t, ":9100", loaded.Metrics.Addr)
	require.Equal(t, "organizer", loaded.Actor)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("log:\n  level: warn\n"), 0644))

	t.Setenv("CLAIMHUB_LOG_LEVEL", "debug")
	t.Setenv("CLAIMHUB_CLAIM_MAX_ATTEMPTS", "2")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 2, cfg.Claim.MaxAttempts)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown driver", "broadcast:\n  driver: kafka\n"},
		{"unknown database", "database:\n  driver: postgres\n"},
		{"nats without url", "broadcast:\n  driver: nats\n"},
		{"zero attempts", "claim:\n  max_attempts: 0\n"},
		{"malformed yaml", "log: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(tt.yaml), 0644))

			_, err := LoadConfig(dir)
			require.Error(t, err)
		})
	}
}

func TestHomeDir(t *testing.T) {
	t.Setenv("CLAIMHUB_HOME", "/tmp/claimhub-test")

	dir, err := HomeDir()
	require.NoError(t, err)
	require.Equal(t, "/tmp/claimhub-test", dir)

	t.Setenv("CLAIMHUB_HOME", "")
	dir, err = HomeDir()
	require.NoError(t, err)
	home, _ := os.UserHomeDir()
	require.Equal(t, filepath.Join(home, ".claimhub"), dir)
}
