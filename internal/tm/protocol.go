package tm

import (
	"fmt"

	"github.com/Jerrylum/vex-tm-obs-sync/internal/fieldset"
)

// Competition selects the Tournament Manager program a bind targets.
type Competition string

const (
	CompetitionV5RC  Competition = "V5RC"
	CompetitionVIQRC Competition = "VIQRC"
	CompetitionVURC  Competition = "VURC"
	CompetitionVAIRC Competition = "VAIRC"
)

// ParseCompetition resolves a configured competition name.
func ParseCompetition(s string) (Competition, bool) {
	switch Competition(s) {
	case CompetitionV5RC, CompetitionVIQRC, CompetitionVURC, CompetitionVAIRC:
		return Competition(s), true
	}
	return "", false
}

// Message types on the fieldset socket. The client sends bind and
// request; the server answers with response and pushes overview.
const (
	msgBind     = "bind"
	msgRequest  = "request"
	msgResponse = "response"
	msgOverview = "overview"
)

// Commands carried by request messages.
const (
	cmdOverview   = "overview"
	cmdMatchState = "matchState"
	cmdSetDisplay = "setDisplay"
)

// message is the single envelope for everything on the socket. Fields
// are populated per type; the rest stay empty on the wire.
type message struct {
	Type        string           `json:"type"`
	ID          string           `json:"id,omitempty"`
	Command     string           `json:"command,omitempty"`
	Competition string           `json:"competition,omitempty"`
	Fieldset    string           `json:"fieldset,omitempty"`
	Display     string           `json:"display,omitempty"`
	MatchState  string           `json:"match_state,omitempty"`
	Overview    *overviewPayload `json:"overview,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// overviewPayload mirrors the fieldset overview: the audience display and
// the zero-based id of the field the display is pointed at. A null field
// id means no field is selected.
type overviewPayload struct {
	AudienceDisplay string `json:"audience_display"`
	CurrentFieldID  *int   `json:"current_field_id"`
}

func (p *overviewPayload) toOverview() fieldset.Overview {
	ov := fieldset.Overview{FieldID: fieldset.NoField}
	if p == nil {
		return ov
	}
	if d, ok := fieldset.DisplayByName(p.AudienceDisplay); ok {
		ov.Display = d
	}
	if p.CurrentFieldID != nil {
		ov.FieldID = *p.CurrentFieldID
	}
	return ov
}

// matchStateNames maps the wire encoding to fieldset states.
var matchStateNames = map[string]fieldset.MatchState{
	"disabled": fieldset.MatchDisabled,
	"paused":   fieldset.MatchPaused,
	"running":  fieldset.MatchRunning,
}

// CommandError reports a request the fieldset rejected.
type CommandError struct {
	Command string
	Reason  string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("tm: %s failed: %s", e.Command, e.Reason)
}
