package cli

import (
	"github.com/spf13/cobra"
)

// NewUninstallCommand creates the uninstall command.
func NewUninstallCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall <app>",
		Short: "Stop an app and remove it with its data",
		Long: `Uninstall an app.

Takes the app's containers down, deletes its data directory, and removes
it from the installed set. App data is not recoverable afterwards.

Example:
  haven uninstall nextcloud`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.Close()

			return runLifecycle(cmd.Context(), rt, cmd.OutOrStdout(), "uninstall", args[0], rt.mgr.Uninstall)
		},
	}

	return cmd
}
