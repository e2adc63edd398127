// Package config loads and validates the settings file.
//
// Validation runs in two layers. The embedded CUE schema (schema.cue)
// checks shape and the display vocabulary; Go code then enforces the
// cross-field invariants the schema cannot express and builds the mapping
// table. Every failure surfaces as a *ConfigError so callers can treat
// configuration problems uniformly as fatal.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Jerrylum/vex-tm-obs-sync/internal/bridge"
	"github.com/Jerrylum/vex-tm-obs-sync/internal/fieldset"
	"github.com/Jerrylum/vex-tm-obs-sync/internal/mapping"
)

// DefaultPath is the settings file looked up in the working directory when
// no explicit path is given.
const DefaultPath = "settings.yml"

// Defaults applied to fields the settings file leaves unset.
const (
	DefaultOBSHost       = "localhost"
	DefaultOBSPort       = 4455
	DefaultTMHost        = "localhost"
	DefaultCompetition   = "V5RC"
	DefaultFieldsetTitle = "Match Field Set #1"
)

// OBSSettings configures the scene switcher connection.
type OBSSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
}

// TMSettings configures the Tournament Manager connection and names the
// fieldset whose audience display is synced.
type TMSettings struct {
	Host          string `yaml:"host"`
	Competition   string `yaml:"competition"`
	FieldsetTitle string `yaml:"fieldset_title"`
}

// FieldSceneMapping names one scene in the ordered per-field list. List
// position is the field index: the first entry is field 0.
type FieldSceneMapping struct {
	OBSScene string `yaml:"obs_scene"`
}

// OtherSceneMapping pairs a scene with a non-positional display state.
type OtherSceneMapping struct {
	OBSScene  string `yaml:"obs_scene"`
	TMDisplay string `yaml:"tm_display"`
}

// Config is the decoded settings file with defaults applied.
type Config struct {
	OBS                OBSSettings         `yaml:"obs"`
	VexTM              TMSettings          `yaml:"vex_tm"`
	FieldSceneMappings []FieldSceneMapping `yaml:"field_scene_mappings"`
	OtherSceneMappings []OtherSceneMapping `yaml:"other_scene_mappings"`
	SyncOBSToTM        *bool               `yaml:"sync_obs_to_tm"`
	SyncTMToOBS        *bool               `yaml:"sync_tm_to_obs"`
}

// ConfigError reports an invalid or unreadable settings file. It is fatal:
// the daemon refuses to start on any ConfigError.
type ConfigError struct {
	Path    string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %s", e.Path, e.Message)
	}
	return "config: " + e.Message
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Load reads, schema-checks, and decodes the settings file at path, then
// applies defaults and runs semantic validation. Any failure returns a
// *ConfigError.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Message: "cannot read settings file", Err: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes raw YAML settings. Split from Load so tests and callers
// holding bytes (rather than a file) share the same pipeline.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "invalid YAML", Err: err}
	}
	if len(raw) == 0 {
		return nil, &ConfigError{Message: "settings file is empty"}
	}

	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, &ConfigError{Message: "cannot decode settings", Err: err}
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.OBS.Host == "" {
		c.OBS.Host = DefaultOBSHost
	}
	if c.OBS.Port == 0 {
		c.OBS.Port = DefaultOBSPort
	}
	if c.VexTM.Host == "" {
		c.VexTM.Host = DefaultTMHost
	}
	if c.VexTM.Competition == "" {
		c.VexTM.Competition = DefaultCompetition
	}
	if c.VexTM.FieldsetTitle == "" {
		c.VexTM.FieldsetTitle = DefaultFieldsetTitle
	}
	if c.SyncOBSToTM == nil {
		c.SyncOBSToTM = boolPtr(true)
	}
	if c.SyncTMToOBS == nil {
		c.SyncTMToOBS = boolPtr(true)
	}
}

// validate enforces the cross-field invariants: at least one direction
// enabled, at least one mapping, and a table that actually constructs.
func (c *Config) validate() error {
	if !*c.SyncOBSToTM && !*c.SyncTMToOBS {
		return &ConfigError{Message: "both sync directions are disabled; nothing to do"}
	}
	if len(c.FieldSceneMappings) == 0 && len(c.OtherSceneMappings) == 0 {
		return &ConfigError{Message: "no scene mappings configured"}
	}
	if _, err := c.Table(); err != nil {
		return err
	}
	return nil
}

// Table builds the validated mapping table from the configured lists.
func (c *Config) Table() (*mapping.Table, error) {
	fieldScenes := make([]string, 0, len(c.FieldSceneMappings))
	for _, m := range c.FieldSceneMappings {
		fieldScenes = append(fieldScenes, m.OBSScene)
	}

	pairs := make([]mapping.Pair, 0, len(c.OtherSceneMappings))
	for _, m := range c.OtherSceneMappings {
		d, ok := fieldset.DisplayByName(m.TMDisplay)
		if !ok {
			return nil, &ConfigError{
				Message: fmt.Sprintf("unknown display state %q for scene %q", m.TMDisplay, m.OBSScene),
			}
		}
		pairs = append(pairs, mapping.Pair{Scene: m.OBSScene, Display: d})
	}

	table, err := mapping.New(fieldScenes, pairs)
	if err != nil {
		return nil, &ConfigError{Message: "invalid scene mappings", Err: err}
	}
	return table, nil
}

// Directions returns the enabled sync directions with defaults applied.
func (c *Config) Directions() (obsToTM, tmToOBS bool) {
	obsToTM = c.SyncOBSToTM == nil || *c.SyncOBSToTM
	tmToOBS = c.SyncTMToOBS == nil || *c.SyncTMToOBS
	return obsToTM, tmToOBS
}

// EngineOptions translates the config into bridge options.
func (c *Config) EngineOptions() []bridge.Option {
	obsToTM, tmToOBS := c.Directions()
	return []bridge.Option{bridge.WithDirections(obsToTM, tmToOBS)}
}

func boolPtr(b bool) *bool { return &b }
