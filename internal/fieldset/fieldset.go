// Package fieldset defines the closed vocabulary of a Tournament Manager
// fieldset: the audience display modes, the match run states, and the
// overview snapshot the fieldset reports.
//
// The display vocabulary is deliberately a small tagged type with a total,
// explicit name conversion. Configuration and wire input refer to displays
// by name; an unknown name is a reportable condition at the boundary where
// it appears, never an unchecked index.
package fieldset

import "fmt"

// Display identifies an audience display mode.
//
// The zero value is DisplayUnknown, used by the sync engine to mean
// "no display observed yet". It is never a valid mapping target.
type Display int

const (
	// DisplayUnknown is the zero value; not part of the vocabulary.
	DisplayUnknown Display = iota

	DisplayBlank
	DisplayLogo
	DisplayIntro
	DisplayInMatch
	DisplaySavedMatchResults
	DisplaySchedule
	DisplayRankings
	DisplayAllianceSelection
	DisplayElimBracket
	DisplaySlides
	DisplayInspection
)

// displayNames maps each display to its canonical name. The names match the
// Tournament Manager vocabulary and are what appears in settings files and
// on the wire.
var displayNames = map[Display]string{
	DisplayBlank:             "Blank",
	DisplayLogo:              "Logo",
	DisplayIntro:             "Intro",
	DisplayInMatch:           "InMatch",
	DisplaySavedMatchResults: "SavedMatchResults",
	DisplaySchedule:          "Schedule",
	DisplayRankings:          "Rankings",
	DisplayAllianceSelection: "AllianceSelection",
	DisplayElimBracket:       "ElimBracket",
	DisplaySlides:            "Slides",
	DisplayInspection:        "Inspection",
}

// displaysByName is the reverse of displayNames, built at init.
var displaysByName = func() map[string]Display {
	m := make(map[string]Display, len(displayNames))
	for d, name := range displayNames {
		m[name] = d
	}
	return m
}()

// DisplayByName converts a display name to its Display value.
// Returns (DisplayUnknown, false) for names outside the vocabulary.
func DisplayByName(name string) (Display, bool) {
	d, ok := displaysByName[name]
	return d, ok
}

// DisplayNames returns the full vocabulary in declaration order.
// Used for configuration error messages.
func DisplayNames() []string {
	names := make([]string, 0, len(displayNames))
	for d := DisplayBlank; d <= DisplayInspection; d++ {
		names = append(names, displayNames[d])
	}
	return names
}

// String returns the canonical name, or a diagnostic form for values
// outside the vocabulary.
func (d Display) String() string {
	if name, ok := displayNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Display(%d)", int(d))
}

// Valid reports whether d is part of the vocabulary.
func (d Display) Valid() bool {
	_, ok := displayNames[d]
	return ok
}

// Positional reports whether the display's meaning depends on which field
// is currently active. Intro and InMatch follow the active field; every
// other display is a fixed mode.
func (d Display) Positional() bool {
	return d == DisplayIntro || d == DisplayInMatch
}

// MatchState is the fieldset's match run state.
type MatchState int

const (
	// MatchDisabled means no match is loaded on the field.
	MatchDisabled MatchState = iota
	// MatchPaused means a match is loaded but the clock is stopped.
	MatchPaused
	// MatchRunning means the match clock is running.
	MatchRunning
)

var matchStateNames = map[MatchState]string{
	MatchDisabled: "Disabled",
	MatchPaused:   "Paused",
	MatchRunning:  "Running",
}

// String returns the state name, or a diagnostic form for unknown values.
func (s MatchState) String() string {
	if name, ok := matchStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("MatchState(%d)", int(s))
}

// Active reports whether a match is in progress (running or paused).
func (s MatchState) Active() bool {
	return s == MatchRunning || s == MatchPaused
}

// NoField is the Overview.FieldID value when the fieldset reports no
// active field.
const NoField = -1

// Overview is the fieldset's current audience-facing state: which display
// is shown and which field (0-based) is active, if any.
type Overview struct {
	Display Display
	FieldID int
}

// HasField reports whether the overview carries a usable field index.
func (o Overview) HasField() bool {
	return o.FieldID != NoField
}
