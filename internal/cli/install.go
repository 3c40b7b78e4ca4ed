package cli

import (
	"github.com/spf13/cobra"
)

// NewInstallCommand creates the install command.
func NewInstallCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <app>",
		Short: "Install an app and start its containers",
		Long: `Install an app.

Copies the app's template into its data directory, records it in the
installed set, and starts its containers. Installing an already-installed
app is a no-op for the set and restarts the containers.

Example:
  haven install nextcloud
  haven install installed    (reconcile every installed app)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.Close()

			return runLifecycle(cmd.Context(), rt, cmd.OutOrStdout(), "install", args[0], rt.mgr.Install)
		},
	}

	return cmd
}
