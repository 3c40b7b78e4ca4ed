package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InstalledTarget is the pseudo app name that broadcasts a lifecycle
// command to every installed app.
const InstalledTarget = "installed"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Root    string // platform root override
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the haven CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "haven",
		Short: "haven - home-server app lifecycle manager",
		Long: `haven installs, starts, stops, and uninstalls containerized apps.

Each app is a directory under the platform root carrying a declarative
manifest and a compose fragment. Container lifecycle is delegated to the
compose orchestrator; per-app secrets derive deterministically from the
master seed; the installed set lives in an embedded database.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Root, "root", "", "platform root directory (overrides HAVEN_ROOT)")

	// Add subcommands
	cmd.AddCommand(NewInstallCommand(opts))
	cmd.AddCommand(NewUninstallCommand(opts))
	cmd.AddCommand(NewStartCommand(opts))
	cmd.AddCommand(NewStopCommand(opts))
	cmd.AddCommand(NewRestartCommand(opts))
	cmd.AddCommand(NewComposeCommand(opts))
	cmd.AddCommand(NewLsInstalledCommand(opts))
	cmd.AddCommand(NewDeriveCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
