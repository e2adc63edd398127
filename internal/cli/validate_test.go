package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validateTestSettings = `
field_scene_mappings:
  - obs_scene: Field 1
  - obs_scene: Field 2
other_scene_mappings:
  - obs_scene: Rankings Scene
    tm_display: Rankings
  - obs_scene: Logo Scene
    tm_display: Logo
`

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateValidSettings(t *testing.T) {
	path := writeSettings(t, validateTestSettings)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Config: path}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "✓ Settings valid")

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "validate_summary", buf.Bytes())
}

func TestValidateValidSettingsJSON(t *testing.T) {
	path := writeSettings(t, validateTestSettings)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json", Config: path}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var summary ValidationSummary
	require.NoError(t, json.Unmarshal(data, &summary))

	assert.True(t, summary.Valid)
	assert.Equal(t, "localhost", summary.OBSHost)
	assert.Equal(t, 4455, summary.OBSPort)
	assert.Equal(t, "Match Field Set #1", summary.FieldsetTitle)
	assert.Equal(t, []string{"Field 1", "Field 2"}, summary.FieldScenes)
	require.Len(t, summary.SceneMappings, 2)
}

func TestValidateMissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Config: filepath.Join(t.TempDir(), "absent.yml")}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "E002")
}

func TestValidateInvalidSettings(t *testing.T) {
	path := writeSettings(t, `
other_scene_mappings:
  - obs_scene: Scoreboard
    tm_display: Scoreboard
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Config: path}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidateBothDirectionsDisabled(t *testing.T) {
	path := writeSettings(t, validateTestSettings+`
sync_obs_to_tm: false
sync_tm_to_obs: false
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Config: path}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
