package cli

import (
	"github.com/spf13/cobra"
)

// NewStartCommand creates the start command.
func NewStartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <app>",
		Short: "Start an installed app's containers",
		Long: `Start an installed app.

Refuses, without invoking the orchestrator, when the app is not in the
installed set.

Example:
  haven start nextcloud
  haven start installed    (start every installed app)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.Close()

			return runLifecycle(cmd.Context(), rt, cmd.OutOrStdout(), "start", args[0], rt.mgr.Start)
		},
	}

	return cmd
}
