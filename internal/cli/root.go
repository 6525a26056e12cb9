package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/claimhub/internal/config"
	"github.com/example/claimhub/internal/ctxutil"
	"github.com/example/claimhub/internal/version"
	"github.com/example/claimhub/internal/wire"
)

// RootCmd returns the claimhub command tree.
func RootCmd() *cobra.Command {
	var home string

	rootCmd := &cobra.Command{
		Use:     "claimhub",
		Short:   "claimhub - capacity-limited volunteer sign-up",
		Version: version.String(),
		Long: `claimhub runs a shared sign-up sheet: organizers publish tasks with a fixed
number of slots and participants claim one slot each, first come first served.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if home != "" {
				wire.SetConfigDir(home)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&home, "home", "", "config directory (default $CLAIMHUB_HOME or ~/.claimhub)")

	rootCmd.AddCommand(InitCmd())
	rootCmd.AddCommand(DoctorCmd())
	rootCmd.AddCommand(TaskCmd())
	rootCmd.AddCommand(ClaimCmd())
	rootCmd.AddCommand(AssignmentCmd())
	rootCmd.AddCommand(ResetCmd())
	rootCmd.AddCommand(SettingsCmd())
	rootCmd.AddCommand(BoardCmd())
	rootCmd.AddCommand(WatchCmd())

	return rootCmd
}

// commandContext attaches the configured actor (or $USER) to the command context.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	actor := wire.Default().Config.Actor
	if actor == "" {
		actor = os.Getenv("USER")
	}
	return ctxutil.WithActorID(ctx, actor)
}

// homeFlag returns the --home value, falling back to the default location.
func homeFlag(cmd *cobra.Command) (string, error) {
	if f := cmd.Flag("home"); f != nil && f.Value.String() != "" {
		return f.Value.String(), nil
	}
	return config.HomeDir()
}
