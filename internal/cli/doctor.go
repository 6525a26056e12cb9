package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/claimhub/internal/adapters/broadcast"
	"github.com/example/claimhub/internal/adapters/fingerprint"
	"github.com/example/claimhub/internal/adapters/sqlite"
	"github.com/example/claimhub/internal/config"
	"github.com/example/claimhub/internal/core/settings"
	"github.com/example/claimhub/internal/db"
	"github.com/example/claimhub/internal/logging"
	"github.com/example/claimhub/internal/ports/secondary"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate claimhub configuration and storage",
		Long: `Health check for a claimhub installation.

Validates:
- config.yaml parses and is consistent
- Database opens and is at the latest schema version
- Stored settings are well-formed
- The configured broadcast driver is reachable
- This machine yields a stable device fingerprint

Examples:
  claimhub doctor              # Run full health check
  claimhub doctor --quiet      # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := homeFlag(cmd)
			if err != nil {
				return err
			}

			results := runChecks(cmd.Context(), dir)

			hasErrors := false
			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				printResults(cmd.OutOrStdout(), results, hasErrors)
			}

			if hasErrors {
				return fmt.Errorf("environment validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - exit code only")

	return cmd
}

func runChecks(ctx context.Context, dir string) []CheckResult {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return []CheckResult{{Name: "Config", Status: "✗", Details: "  " + err.Error()}}
	}

	results := []CheckResult{{Name: "Config", Status: "✓"}}
	results = append(results, checkDatabase(ctx, cfg)...)
	results = append(results, checkBroadcast(cfg))
	results = append(results, checkFingerprint(ctx))
	return results
}

func printResults(out io.Writer, results []CheckResult, hasErrors bool) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Check              Status")
	fmt.Fprintln(out, "─────────────────────────")
	for _, r := range results {
		fmt.Fprintf(out, "%-18s %s\n", r.Name, r.Status)
	}
	fmt.Fprintln(out)

	hasDetails := false
	for _, r := range results {
		if r.Status != "✓" && r.Details != "" {
			if !hasDetails {
				fmt.Fprintln(out, "Details:")
				hasDetails = true
			}
			fmt.Fprintf(out, "\n%s:\n%s\n", r.Name, r.Details)
		}
	}

	if hasErrors {
		fmt.Fprintln(out, "\n⚠ Issues found. Run 'claimhub init' to create missing files.")
	} else {
		fmt.Fprintln(out, "All checks passed.")
	}
}

// checkDatabase opens the database (applying pending migrations) and
// inspects the stored settings.
func checkDatabase(ctx context.Context, cfg *config.Config) []CheckResult {
	if cfg.Database.Driver == config.DriverMemory {
		return []CheckResult{
			{Name: "Database", Status: "⚠", Details: "  database.driver is memory; nothing survives a restart"},
			{Name: "Settings", Status: "✓"},
		}
	}

	conn, err := db.Open(cfg.Database.Path)
	if err != nil {
		return []CheckResult{
			{Name: "Database", Status: "✗", Details: "  " + err.Error()},
			{Name: "Settings", Status: "⚠", Details: "  Skipped: database unavailable"},
		}
	}
	store := sqlite.NewStore(conn)
	defer store.Close()

	dbResult := CheckResult{Name: "Database", Status: "✓"}
	if _, err := db.SchemaVersion(conn); err != nil {
		dbResult = CheckResult{Name: "Database", Status: "✗", Details: "  " + err.Error()}
	}

	var problems []string
	err = store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		stored, err := repos.Settings.List(ctx)
		if err != nil {
			return err
		}
		values := make(map[string]string, len(stored))
		for _, s := range stored {
			values[s.Key] = s.Value
		}
		problems = settings.Problems(values)
		return nil
	})
	if err != nil {
		return []CheckResult{dbResult, {Name: "Settings", Status: "✗", Details: "  " + err.Error()}}
	}
	if len(problems) > 0 {
		return []CheckResult{dbResult, {Name: "Settings", Status: "⚠", Details: "  " + strings.Join(problems, "\n  ")}}
	}
	return []CheckResult{dbResult, {Name: "Settings", Status: "✓"}}
}

func checkBroadcast(cfg *config.Config) CheckResult {
	if cfg.Broadcast.Driver != config.DriverNATS {
		return CheckResult{Name: "Broadcast", Status: "✓"}
	}

	nb, err := broadcast.DialNATS(cfg.Broadcast.NATSURL, cfg.Broadcast.SubjectPrefix, logging.NewNop())
	if err != nil {
		return CheckResult{Name: "Broadcast", Status: "✗", Details: fmt.Sprintf("  %s: %v", cfg.Broadcast.NATSURL, err)}
	}
	nb.Close()
	return CheckResult{Name: "Broadcast", Status: "✓"}
}

func checkFingerprint(ctx context.Context) CheckResult {
	host := fingerprint.NewHost()
	a, errA := host.DeviceID(ctx)
	b, errB := host.DeviceID(ctx)
	if errA != nil || errB != nil || a != b {
		return CheckResult{
			Name:    "Fingerprint",
			Status:  "⚠",
			Details: "  Device fingerprint is not stable; repeat claims from this machine will not be recognized",
		}
	}
	return CheckResult{Name: "Fingerprint", Status: "✓"}
}

