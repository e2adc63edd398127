// Package cli wires the sync daemon's commands: run starts the bridge,
// validate checks a settings file, trace inspects the transition journal.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jerrylum/vex-tm-obs-sync/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config  string // path to the settings file; empty means settings.yml in the working directory
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the vex-tm-obs-sync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "vex-tm-obs-sync",
		Short: "Keep OBS scenes and the VEX TM audience display in sync",
		Long:  "Bidirectional synchronization between OBS scene switching and the VEX Tournament Manager fieldset audience display.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "path to the settings file (default: settings.yml in current directory)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

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

// settingsPath resolves the settings file location from the --config flag.
func settingsPath(opts *RootOptions) string {
	if opts.Config != "" {
		return opts.Config
	}
	return config.DefaultPath
}
