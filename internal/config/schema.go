package config

import (
	_ "embed"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce sync.Once
	schemaVal  cue.Value
)

// settingsSchema compiles the embedded schema once. Compilation cannot
// fail at runtime short of a broken embed, so errors surface on first use
// through the invalid cue.Value.
func settingsSchema() cue.Value {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		schemaVal = ctx.CompileString(schemaSource).LookupPath(cue.ParsePath("#Settings"))
	})
	return schemaVal
}

// validateSchema unifies the decoded YAML document with the settings
// schema and checks the result is a valid, concrete instance. Unknown
// fields are rejected because #Settings is a closed definition.
func validateSchema(raw map[string]any) error {
	schema := settingsSchema()
	if err := schema.Err(); err != nil {
		return &ConfigError{Message: "settings schema is broken", Err: err}
	}

	doc := schema.Context().Encode(raw)
	if err := doc.Err(); err != nil {
		return &ConfigError{Message: "cannot encode settings for validation", Err: err}
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return &ConfigError{
			Message: cueerrors.Details(err, nil),
			Err:     err,
		}
	}
	return nil
}
