package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jerrylum/vex-tm-obs-sync/internal/journal"
)

func seedJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transitions.db")

	j, err := journal.Open(path)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	_, err = j.Record(ctx, journal.Transition{
		Token:     "tok-1",
		Direction: journal.DirectionOBSToTM,
		Trigger:   "Field 1",
		Target:    "InMatch",
		Outcome:   journal.OutcomeOK,
	})
	require.NoError(t, err)
	_, err = j.Record(ctx, journal.Transition{
		Token:     "tok-2",
		Direction: journal.DirectionTMToOBS,
		Trigger:   "Rankings",
		Target:    "Rankings Scene",
		Outcome:   journal.OutcomeCommandError,
		Error:     "scene not found",
	})
	require.NoError(t, err)

	return path
}

func TestTraceText(t *testing.T) {
	path := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", path})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, `[1] obs -> tm  "Field 1" -> "InMatch"  ok`)
	assert.Contains(t, output, `[2] tm -> obs  "Rankings" -> "Rankings Scene"  command_error`)
	assert.Contains(t, output, "error: scene not found")
	assert.Contains(t, output, "Total:          2")
	assert.Contains(t, output, "Command errors: 1")
}

func TestTraceJSON(t *testing.T) {
	path := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", path})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result TraceResult
	require.NoError(t, json.Unmarshal(data, &result))

	require.Len(t, result.Transitions, 2)
	assert.Equal(t, "tok-1", result.Transitions[0].Token)
	assert.Equal(t, journal.DirectionOBSToTM, result.Transitions[0].Direction)
	assert.Equal(t, 2, result.Stats.Total)
	assert.Equal(t, 1, result.Stats.OBSToTM)
	assert.Equal(t, 1, result.Stats.TMToOBS)
	assert.Equal(t, 1, result.Stats.CommandErrors)
}

func TestTraceDirectionFilter(t *testing.T) {
	path := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", path, "--direction", "obs_to_tm"})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result TraceResult
	require.NoError(t, json.Unmarshal(data, &result))

	require.Len(t, result.Transitions, 1)
	assert.Equal(t, "tok-1", result.Transitions[0].Token)
	// Stats always cover the whole journal, not the filtered view.
	assert.Equal(t, 2, result.Stats.Total)
}

func TestTraceInvalidDirection(t *testing.T) {
	path := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", path, "--direction", "sideways"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceEmptyJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "(no transitions)")
}

func TestTraceUnopenableDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "transitions.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
