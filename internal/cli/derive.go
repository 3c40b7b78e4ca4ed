package cli

import (
	"github.com/spf13/cobra"

	"github.com/havenos/haven/internal/secrets"
)

// NewDeriveCommand creates the derive command.
func NewDeriveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive <identifier>",
		Short: "Print the secret derived for an identifier",
		Long: `Derive and print the secret for an identifier.

Useful when debugging an app's configuration or recovering a credential:
the same identifier always yields the same value for a given seed.

Example:
  haven derive app-nextcloud
  haven derive password-nextcloud`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}

			deriver, err := secrets.LoadFile(cfg.SeedPath(), cfg.FallbackSeedPath())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load master seed", err)
			}

			digest, err := deriver.Derive(args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "derive failed", err)
			}

			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			return formatter.Success(digest)
		},
	}

	return cmd
}
