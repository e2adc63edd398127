package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jerrylum/vex-tm-obs-sync/internal/config"
)

// ValidationSummary holds the validate command's result.
type ValidationSummary struct {
	Valid         bool             `json:"valid"`
	SettingsPath  string           `json:"settings_path"`
	OBSHost       string           `json:"obs_host"`
	OBSPort       int              `json:"obs_port"`
	TMHost        string           `json:"tm_host"`
	Competition   string           `json:"competition"`
	FieldsetTitle string           `json:"fieldset_title"`
	SyncOBSToTM   bool             `json:"sync_obs_to_tm"`
	SyncTMToOBS   bool             `json:"sync_tm_to_obs"`
	FieldScenes   []string         `json:"field_scenes"`
	SceneMappings []MappingSummary `json:"scene_mappings"`
}

// MappingSummary is one direct scene/display pair in the summary.
type MappingSummary struct {
	Scene   string `json:"scene"`
	Display string `json:"display"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the settings file without connecting",
		Long: `Validate the settings file without connecting to either endpoint.

Checks YAML shape, the display-state vocabulary, and the mapping
invariants, then prints a summary of the resolved configuration.

Examples:
  vex-tm-obs-sync validate
  vex-tm-obs-sync validate --config event.yml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	path := settingsPath(opts)
	formatter.VerboseLog("Validating settings: %s", path)

	cfg, err := config.Load(path)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		// A missing file is a command error; invalid content is a
		// validation failure.
		if errors.Is(err, os.ErrNotExist) {
			return WrapExitError(ExitCommandError, "settings file not found", err)
		}
		return WrapExitError(ExitFailure, "settings validation failed", err)
	}

	table, err := cfg.Table()
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitFailure, "settings validation failed", err)
	}

	obsToTM, tmToOBS := cfg.Directions()
	summary := ValidationSummary{
		Valid:         true,
		SettingsPath:  path,
		OBSHost:       cfg.OBS.Host,
		OBSPort:       cfg.OBS.Port,
		TMHost:        cfg.VexTM.Host,
		Competition:   cfg.VexTM.Competition,
		FieldsetTitle: cfg.VexTM.FieldsetTitle,
		SyncOBSToTM:   obsToTM,
		SyncTMToOBS:   tmToOBS,
		FieldScenes:   table.FieldScenes(),
	}
	for _, p := range table.Pairs() {
		summary.SceneMappings = append(summary.SceneMappings, MappingSummary{
			Scene:   p.Scene,
			Display: p.Display.String(),
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	outputValidateText(formatter, summary)
	return nil
}

func outputValidateText(formatter *OutputFormatter, summary ValidationSummary) {
	w := formatter.Writer

	fmt.Fprintln(w, "✓ Settings valid")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "OBS:        %s:%d\n", summary.OBSHost, summary.OBSPort)
	fmt.Fprintf(w, "TM:         %s (%s)\n", summary.TMHost, summary.Competition)
	fmt.Fprintf(w, "Fieldset:   %s\n", summary.FieldsetTitle)
	fmt.Fprintf(w, "Directions: %s\n", formatDirections(summary.SyncOBSToTM, summary.SyncTMToOBS))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Field scenes ===")
	if len(summary.FieldScenes) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		for i, scene := range summary.FieldScenes {
			fmt.Fprintf(w, "  [%d] %s\n", i, scene)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Scene mappings ===")
	if len(summary.SceneMappings) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		for _, m := range summary.SceneMappings {
			fmt.Fprintf(w, "  %s <-> %s\n", m.Scene, m.Display)
		}
	}
}

func formatDirections(obsToTM, tmToOBS bool) string {
	var parts []string
	if obsToTM {
		parts = append(parts, "obs->tm")
	}
	if tmToOBS {
		parts = append(parts, "tm->obs")
	}
	return strings.Join(parts, ", ")
}
