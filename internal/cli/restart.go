package cli

import (
	"github.com/spf13/cobra"
)

// NewRestartCommand creates the restart command.
func NewRestartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart <app>",
		Short: "Stop and start an installed app",
		Long: `Restart an app: stop its containers, then start them again.

Example:
  haven restart nextcloud
  haven restart installed    (restart every installed app)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.Close()

			return runLifecycle(cmd.Context(), rt, cmd.OutOrStdout(), "restart", args[0], rt.mgr.Restart)
		},
	}

	return cmd
}
