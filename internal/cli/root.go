package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCmd wires every subcommand of the planner binary.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "taskplanner",
		Short:         "Personal task planner with recurring tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newBotCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newPatternCmd())

	return cmd
}

// Execute runs the root command until ctx is cancelled or the command returns.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
