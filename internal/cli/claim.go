package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/claimhub/internal/wire"
)

// ClaimCmd returns the claim command
func ClaimCmd() *cobra.Command {
	var name, device string

	cmd := &cobra.Command{
		Use:   "claim [task-id]",
		Short: "Sign up for a task",
		Long: `Take one slot in a task.

While device dedup is on, each device may hold one slot in total; the device
is identified by a fingerprint of this machine unless --device is given.`,
		Args: cobra.ExactArgs(1),
		Example: `  claimhub claim TASK-002 --name "Ana Souza"
  claimhub claim TASK-002 --name "Ben" --device kiosk-3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			deviceID := strings.TrimSpace(device)
			if deviceID == "" {
				var err error
				deviceID, err = wire.Default().ResolveDeviceID(ctx)
				if err != nil {
					return err
				}
			}

			_, err := wire.ClaimAdapterWithOutput(cmd.OutOrStdout()).Claim(ctx, args[0], name, deviceID)
			return err
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Participant name (required)")
	cmd.Flags().StringVarP(&device, "device", "d", "", "Device identifier (default: fingerprint of this machine)")
	cmd.MarkFlagRequired("name")

	return cmd
}

// AssignmentCmd returns the assignment command
func AssignmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "assignment",
		Aliases: []string{"assignments"},
		Short:   "Inspect and remove sign-ups",
	}

	listCmd := &cobra.Command{
		Use:   "list [task-id]",
		Short: "List assignments, of one task or of all tasks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var taskID string
			if len(args) == 1 {
				taskID = args[0]
			}
			return wire.TaskAdapterWithOutput(cmd.OutOrStdout()).Assignments(commandContext(cmd), taskID)
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove [assignment-id]",
		Short: "Remove one assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ClaimAdapterWithOutput(cmd.OutOrStdout()).Remove(commandContext(cmd), args[0])
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear [task-id]",
		Short: "Remove every assignment of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ClaimAdapterWithOutput(cmd.OutOrStdout()).Clear(commandContext(cmd), args[0])
		},
	}

	cmd.AddCommand(listCmd, removeCmd, clearCmd)
	return cmd
}

var errResetNeedsConfirmation = errors.New("reset deletes every task and assignment; re-run with --yes")

// ResetCmd returns the reset command
func ResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every task and assignment",
		Long:  "Delete every task and assignment. Settings are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errResetNeedsConfirmation
			}
			return wire.ClaimAdapterWithOutput(cmd.OutOrStdout()).Reset(commandContext(cmd))
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")

	return cmd
}
