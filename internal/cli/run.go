package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Jerrylum/vex-tm-obs-sync/internal/bridge"
	"github.com/Jerrylum/vex-tm-obs-sync/internal/config"
	"github.com/Jerrylum/vex-tm-obs-sync/internal/journal"
	"github.com/Jerrylum/vex-tm-obs-sync/internal/obs"
	"github.com/Jerrylum/vex-tm-obs-sync/internal/tm"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string // optional transition journal; empty disables journaling
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the sync daemon",
		Long: `Start the synchronization daemon.

Connects to the OBS websocket and the Tournament Manager fieldset named
in the settings file, reconciles the two sides once, and then mirrors
changes in the enabled directions until interrupted.

Example:
  vex-tm-obs-sync run
  vex-tm-obs-sync run --config event.yml --db ./transitions.db --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite transition journal (optional)")

	return cmd
}

func runDaemon(opts *RunOptions, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	path := settingsPath(opts.RootOptions)
	slog.Info("loading settings", "path", path)
	cfg, err := config.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}

	table, err := cfg.Table()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}

	competition, ok := tm.ParseCompetition(cfg.VexTM.Competition)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown competition %q", cfg.VexTM.Competition))
	}

	obsToTM, tmToOBS := cfg.Directions()
	slog.Info("settings loaded",
		"obs", fmt.Sprintf("%s:%d", cfg.OBS.Host, cfg.OBS.Port),
		"tm", cfg.VexTM.Host,
		"fieldset", cfg.VexTM.FieldsetTitle,
		"field_scenes", len(table.FieldScenes()),
		"scene_mappings", len(table.Pairs()),
		"obs_to_tm", obsToTM,
		"tm_to_obs", tmToOBS,
	)

	engineOpts := cfg.EngineOptions()
	if opts.Database != "" {
		slog.Info("opening transition journal", "path", opts.Database)
		j, err := journal.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()
		engineOpts = append(engineOpts, bridge.WithJournal(j))
	}

	// Setup signal handling for graceful shutdown
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("connecting to obs", "host", cfg.OBS.Host, "port", cfg.OBS.Port)
	obsClient, err := obs.Dial(ctx, cfg.OBS.Host, cfg.OBS.Port, cfg.OBS.Password)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to connect to OBS", err)
	}
	defer obsClient.Close()

	slog.Info("connecting to tournament manager", "host", cfg.VexTM.Host, "fieldset", cfg.VexTM.FieldsetTitle)
	tmClient, err := tm.Dial(ctx, cfg.VexTM.Host, competition, cfg.VexTM.FieldsetTitle)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to connect to Tournament Manager", err)
	}
	defer tmClient.Close()

	engine := bridge.New(table, engineOpts...)
	if err := engine.Start(obsClient, tmClient); err != nil {
		return WrapExitError(ExitFailure, "failed to start bridge", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Synchronization started.")
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	<-ctx.Done()

	engine.Stop()
	slog.Info("daemon stopped gracefully")
	return nil
}
