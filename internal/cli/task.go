package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/claimhub/internal/wire"
)

// TaskCmd returns the task command
func TaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks (things participants sign up for)",
	}

	cmd.AddCommand(taskAddCmd())
	cmd.AddCommand(taskListCmd())
	cmd.AddCommand(taskShowCmd())
	cmd.AddCommand(taskUpdateCmd())
	cmd.AddCommand(taskDeleteCmd())

	return cmd
}

func taskAddCmd() *cobra.Command {
	var subtitle string
	var capacity int

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		Example: `  claimhub task add "Kitchen" --capacity 4
  claimhub task add "Choir" --subtitle "Sunday service" --capacity 6`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.TaskAdapterWithOutput(cmd.OutOrStdout()).Create(commandContext(cmd), args[0], subtitle, capacity)
		},
	}

	cmd.Flags().StringVarP(&subtitle, "subtitle", "s", "", "Short description")
	cmd.Flags().IntVarP(&capacity, "capacity", "c", 1, "Number of slots")

	return cmd
}

func taskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.TaskAdapterWithOutput(cmd.OutOrStdout()).List(commandContext(cmd))
		},
	}
}

func taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [task-id]",
		Short: "Show task details and participants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.TaskAdapterWithOutput(cmd.OutOrStdout()).Show(commandContext(cmd), args[0])
			return err
		},
	}
}

func taskUpdateCmd() *cobra.Command {
	var name, subtitle string
	var capacity int

	cmd := &cobra.Command{
		Use:   "update [task-id]",
		Short: "Update a task's name, subtitle or capacity",
		Long: `Update a task. Lowering capacity below the current number of
participants is allowed; nobody is removed, the task just shows as full.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cp *int
			if cmd.Flags().Changed("capacity") {
				cp = &capacity
			}
			return wire.TaskAdapterWithOutput(cmd.OutOrStdout()).Update(commandContext(cmd), args[0], name, subtitle, cp)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	cmd.Flags().StringVarP(&subtitle, "subtitle", "s", "", "New subtitle")
	cmd.Flags().IntVarP(&capacity, "capacity", "c", 0, "New number of slots")

	return cmd
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [task-id]",
		Short: "Delete a task and its assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.TaskAdapterWithOutput(cmd.OutOrStdout()).Delete(commandContext(cmd), args[0])
		},
	}
}
