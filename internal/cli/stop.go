package cli

import (
	"github.com/spf13/cobra"
)

// NewStopCommand creates the stop command.
func NewStopCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop <app>",
		Short: "Stop an app's containers, keeping its data",
		Long: `Stop an app's containers.

Example:
  haven stop nextcloud
  haven stop installed    (stop every installed app)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.Close()

			return runLifecycle(cmd.Context(), rt, cmd.OutOrStdout(), "stop", args[0], rt.mgr.Stop)
		},
	}

	return cmd
}
