package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMissingSettings(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Config: filepath.Join(t.TempDir(), "absent.yml")}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid settings")
}

func TestRunInvalidSettings(t *testing.T) {
	path := writeSettings(t, `
sync_obs_to_tm: false
sync_tm_to_obs: false
field_scene_mappings:
  - obs_scene: Field 1
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Config: path}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunOBSUnreachable(t *testing.T) {
	// Port 1 refuses immediately, so the command fails before ever
	// reaching Tournament Manager.
	path := writeSettings(t, `
obs:
  host: 127.0.0.1
  port: 1
field_scene_mappings:
  - obs_scene: Field 1
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Config: path}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "OBS")
}

func TestRunUnopenableJournal(t *testing.T) {
	path := writeSettings(t, validateTestSettings)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Config: path}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--db", filepath.Join(t.TempDir(), "missing-dir", "transitions.db")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "journal")
}
