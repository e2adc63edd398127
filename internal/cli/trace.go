package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jerrylum/vex-tm-obs-sync/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	Direction string // optional - filter to one sync direction
}

// TraceEntry is a single journaled transition in the trace output.
type TraceEntry struct {
	Seq       int64  `json:"seq"`
	Token     string `json:"token"`
	Direction string `json:"direction"`
	Trigger   string `json:"trigger"`
	Target    string `json:"target"`
	Outcome   string `json:"outcome"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Transitions []TraceEntry `json:"transitions"`
	Stats       TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the journal.
type TraceStats struct {
	Total         int `json:"total"`
	OBSToTM       int `json:"obs_to_tm"`
	TMToOBS       int `json:"tm_to_obs"`
	CommandErrors int `json:"command_errors"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect the transition journal",
		Long: `Inspect the transition journal written by a run with --db.

Each entry is one issued command: the trigger that caused it, the
target it pushed, and whether the command landed.

Examples:
  vex-tm-obs-sync trace --db ./transitions.db
  vex-tm-obs-sync trace --db ./transitions.db --direction obs_to_tm
  vex-tm-obs-sync trace --db ./transitions.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite transition journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Direction, "direction", "", "filter to one direction (obs_to_tm|tm_to_obs)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	switch opts.Direction {
	case "", journal.DirectionOBSToTM, journal.DirectionTMToOBS:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid direction %q", opts.Direction))
	}

	ctx := context.Background()

	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	transitions, err := j.List(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := TraceResult{Transitions: []TraceEntry{}}
	for _, t := range transitions {
		result.Stats.Total++
		switch t.Direction {
		case journal.DirectionOBSToTM:
			result.Stats.OBSToTM++
		case journal.DirectionTMToOBS:
			result.Stats.TMToOBS++
		}
		if t.Outcome == journal.OutcomeCommandError {
			result.Stats.CommandErrors++
		}

		if opts.Direction != "" && t.Direction != opts.Direction {
			continue
		}
		result.Transitions = append(result.Transitions, TraceEntry{
			Seq:       t.Seq,
			Token:     t.Token,
			Direction: t.Direction,
			Trigger:   t.Trigger,
			Target:    t.Target,
			Outcome:   t.Outcome,
			Error:     t.Error,
			CreatedAt: t.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}

	return outputTraceText(cmd, result, opts.Verbose)
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, "=== Transitions ===")
	if len(result.Transitions) == 0 {
		fmt.Fprintln(w, "  (no transitions)")
	} else {
		for _, entry := range result.Transitions {
			arrow := "obs -> tm"
			if entry.Direction == journal.DirectionTMToOBS {
				arrow = "tm -> obs"
			}
			fmt.Fprintf(w, "  [%d] %s  %q -> %q  %s\n", entry.Seq, arrow, entry.Trigger, entry.Target, entry.Outcome)
			if entry.Error != "" {
				fmt.Fprintf(w, "       error: %s\n", entry.Error)
			}
			if verbose {
				fmt.Fprintf(w, "       token: %s  at: %s\n", entry.Token, entry.CreatedAt)
			}
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total:          %d\n", result.Stats.Total)
	fmt.Fprintf(w, "  OBS -> TM:      %d\n", result.Stats.OBSToTM)
	fmt.Fprintf(w, "  TM -> OBS:      %d\n", result.Stats.TMToOBS)
	fmt.Fprintf(w, "  Command errors: %d\n", result.Stats.CommandErrors)

	return nil
}
