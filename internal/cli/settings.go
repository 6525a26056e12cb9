package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/claimhub/internal/ports/primary"
	"github.com/example/claimhub/internal/wire"
)

// SettingsCmd returns the settings command
func SettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the sign-up policy",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.SettingsAdapterWithOutput(cmd.OutOrStdout()).Show(commandContext(cmd))
		},
	}

	var dedup bool
	var title, instructions string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings",
		Example: `  claimhub settings set --dedup=false
  claimhub settings set --title "Spring Fair" --instructions "One task per family"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req primary.UpdatePolicyRequest
			if cmd.Flags().Changed("dedup") {
				req.DedupEnabled = &dedup
			}
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("instructions") {
				req.Instructions = &instructions
			}
			return wire.SettingsAdapterWithOutput(cmd.OutOrStdout()).Set(commandContext(cmd), req)
		},
	}
	setCmd.Flags().BoolVar(&dedup, "dedup", true, "Limit each device to one slot")
	setCmd.Flags().StringVar(&title, "title", "", "Board title (blank restores the default)")
	setCmd.Flags().StringVar(&instructions, "instructions", "", "Instructions shown above the board")

	cmd.AddCommand(showCmd, setCmd)
	return cmd
}
