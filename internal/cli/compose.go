package cli

import (
	"github.com/spf13/cobra"

	"github.com/havenos/haven/internal/compose"
)

// NewComposeCommand creates the compose pass-through command.
func NewComposeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose <app> [-- orchestrator-args...]",
		Short: "Run the orchestrator for an app with its resolved environment",
		Long: `Pass arbitrary arguments to the compose orchestrator for an app.

The app's environment (secrets, addresses, hidden services) is resolved
exactly as for install/start, so this is the escape hatch for anything the
lifecycle commands do not cover. The orchestrator's exit code propagates
verbatim.

Example:
  haven compose nextcloud -- logs --follow
  haven compose nextcloud -- ps`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.mgr.Compose(cmd.Context(), args[0], args[1:]...); err != nil {
				return WrapExitError(compose.ExitCode(err), "compose "+args[0], err)
			}
			return nil
		},
	}

	return cmd
}
