package cli

import (
	"github.com/spf13/cobra"
)

// NewLsInstalledCommand creates the ls-installed command.
func NewLsInstalledCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls-installed",
		Short: "List installed apps",
		Long: `List installed apps, one per line.

This reads the registry only; no app validation, no orchestrator, no seed.

Example:
  haven ls-installed
  haven ls-installed --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRegistryRuntime(rootOpts)
			if err != nil {
				return err
			}
			defer rt.Close()

			apps, err := rt.reg.List(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list installed apps", err)
			}

			ids := make([]string, 0, len(apps))
			for _, a := range apps {
				ids = append(ids, a.ID)
			}

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			return formatter.Lines(ids)
		},
	}

	return cmd
}
