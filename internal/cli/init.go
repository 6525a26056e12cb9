package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/claimhub/internal/config"
	"github.com/example/claimhub/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var demo bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the claimhub config and database",
		Long: `Write a default config.yaml (unless one exists) and create the database
with the required schema and default settings.

Examples:
  claimhub init
  claimhub init --demo      # also add a few sample tasks`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			dir, err := homeFlag(cmd)
			if err != nil {
				return err
			}

			cfgPath := filepath.Join(dir, config.FileName)
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				if err := config.SaveConfig(dir, config.Default(dir)); err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Wrote %s\n", cfgPath)
			} else {
				fmt.Fprintf(out, "✓ Using existing %s\n", cfgPath)
			}

			cfg, err := config.LoadConfig(dir)
			if err != nil {
				return err
			}

			if cfg.Database.Driver == config.DriverMemory {
				fmt.Fprintln(out, "✓ database.driver is memory; no database file created")
				return nil
			}

			conn, err := db.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer conn.Close()

			fmt.Fprintf(out, "✓ Database initialized at %s\n", cfg.Database.Path)

			if demo {
				if err := db.SeedFixtures(conn); err != nil {
					return fmt.Errorf("failed to add sample tasks: %w", err)
				}
				fmt.Fprintln(out, "✓ Sample tasks added")
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, "  claimhub task add \"Kitchen\" --capacity 4")
			fmt.Fprintln(out, "  claimhub board")

			return nil
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "Add sample tasks")

	return cmd
}
