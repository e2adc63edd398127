package bridge

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Jerrylum/vex-tm-obs-sync/internal/fieldset"
	"github.com/Jerrylum/vex-tm-obs-sync/internal/journal"
	"github.com/Jerrylum/vex-tm-obs-sync/internal/mapping"
)

// Engine keeps the scene switcher and the fieldset audience display in
// sync, in whichever directions are enabled.
//
// Thread-safety model:
//   - HandleSceneChange / HandleOverviewChange: safe from any goroutine;
//     serialized by the engine mutex
//   - Start / Stop: safe from any goroutine
//   - the tracker is only touched while holding the mutex
//
// INVARIANTS:
//   - a command issued by the engine never re-triggers a write on the
//     side that observed it (loop suppression via the tracker)
//   - at most one resolve-and-issue sequence is in flight at a time
//   - a failed command leaves the tracker's opposite-side value unchanged
type Engine struct {
	table   *mapping.Table
	obsToTM bool
	tmToOBS bool
	journal *journal.Journal
	tokens  TokenGenerator

	mu       sync.Mutex
	scenes   SceneSwitcher
	displays DisplayController
	state    tracker
	stopped  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithDirections enables or disables each sync direction. Both default to
// enabled. A disabled direction makes the corresponding handler a no-op
// before any state is touched.
func WithDirections(obsToTM, tmToOBS bool) Option {
	return func(e *Engine) {
		e.obsToTM = obsToTM
		e.tmToOBS = tmToOBS
	}
}

// WithJournal attaches a transition journal. Every issued command is
// recorded; journal write failures are logged and never affect syncing.
func WithJournal(j *journal.Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithTokenGenerator overrides the sync token generator (for testing).
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = g
	}
}

// New creates an Engine over a validated mapping table. The engine does
// nothing until Start.
func New(table *mapping.Table, opts ...Option) *Engine {
	e := &Engine{
		table:   table,
		obsToTM: true,
		tmToOBS: true,
		tokens:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start captures the current state of both endpoints, runs the one-shot
// initial reconciliation pass, and registers change callbacks for the
// enabled directions.
//
// The initial pass pushes a single direction: when both directions are
// enabled the scene switcher's current scene wins and is pushed toward the
// fieldset once; the fieldset is not independently re-pushed in the same
// pass.
//
// Returns a *ConnectionError if either endpoint cannot supply its current
// state; the engine must not run without a captured baseline.
func (e *Engine) Start(scenes SceneSwitcher, displays DisplayController) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.scenes = scenes
	e.displays = displays

	currentScene, err := scenes.CurrentScene()
	if err != nil {
		return &ConnectionError{Side: SideOBS, Err: err}
	}
	e.state.scene = mapping.NormalizeScene(currentScene)

	ov, err := displays.Overview()
	if err != nil {
		return &ConnectionError{Side: SideTM, Err: err}
	}
	e.state.display = ov.Display

	slog.Info("bridge starting",
		"scene", e.state.scene,
		"display", e.state.display,
		"obs_to_tm", e.obsToTM,
		"tm_to_obs", e.tmToOBS,
	)

	switch {
	case e.obsToTM:
		if e.state.scene != "" {
			e.syncSceneLocked(e.state.scene)
		}
	case e.tmToOBS:
		if ov.Display.Valid() {
			e.syncOverviewLocked(ov)
		}
	}

	// Callbacks last: steady-state events only start flowing once the
	// baseline and initial pass are in place.
	if e.obsToTM {
		scenes.OnSceneChange(e.HandleSceneChange)
	}
	if e.tmToOBS {
		displays.OnOverviewChange(e.HandleOverviewChange)
	}

	return nil
}

// Stop makes the engine ignore further events. It blocks until any
// in-flight handler has completed.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}
	e.stopped = true
	slog.Info("bridge stopped")
}

// Snapshot returns the tracker's current values. Used by tests and
// diagnostics; takes the engine lock.
func (e *Engine) Snapshot() (scene string, display fieldset.Display) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.scene, e.state.display
}

// HandleSceneChange processes a scene change observed on the switcher and
// pushes the resolved display to the fieldset.
//
// The tracker check is the loop-break: a scene the engine itself set via
// SetScene reflects back as an event and must not trigger a fieldset
// write. Recording the same scene twice is likewise a no-op.
func (e *Engine) HandleSceneChange(name string) {
	if !e.obsToTM {
		return
	}
	scene := mapping.NormalizeScene(name)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}
	prev := e.state.scene
	if !e.state.recordScene(scene) {
		slog.Debug("scene event suppressed", "scene", scene)
		return
	}

	slog.Debug("scene changed", "scene", scene)
	if !e.syncSceneLocked(scene) {
		// Command failed: restore the tracker so an identical event
		// re-attempts instead of being suppressed as an echo.
		e.state.scene = prev
	}
}

// HandleOverviewChange processes a fieldset overview change and pushes the
// resolved scene to the switcher. Symmetric to HandleSceneChange.
//
// Overview events fire for field reassignments too; those carry an
// unchanged display and are suppressed by the tracker check.
func (e *Engine) HandleOverviewChange(ov fieldset.Overview) {
	if !e.tmToOBS {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}
	if !ov.Display.Valid() {
		slog.Warn("overview with unknown display ignored", "display", ov.Display)
		return
	}
	prev := e.state.display
	if !e.state.recordDisplay(ov.Display) {
		slog.Debug("overview event suppressed", "display", ov.Display)
		return
	}

	slog.Debug("display changed", "display", ov.Display, "field_id", ov.FieldID)
	if !e.syncOverviewLocked(ov) {
		e.state.display = prev
	}
}

// syncSceneLocked resolves the display target for a scene and issues the
// command. Caller holds the mutex. Returns false only when the command
// itself failed; misses and no-ops return true.
//
// Field scenes resolve through the live match state, fetched fresh here:
// an active (running or paused) match shows InMatch, an idle field shows
// Intro. Everything else resolves through the direct table; an unmapped
// scene is a logged no-op.
func (e *Engine) syncSceneLocked(scene string) bool {
	var target fieldset.Display
	if e.table.IsFieldScene(scene) {
		state, err := e.displays.MatchState()
		if err != nil {
			slog.Error("match state unavailable, field scene not synced",
				"scene", scene,
				"error", err,
			)
			return true
		}
		if state.Active() {
			target = fieldset.DisplayInMatch
		} else {
			target = fieldset.DisplayIntro
		}
		slog.Debug("field scene resolved",
			"scene", scene,
			"match_state", state,
			"display", target,
		)
	} else {
		d, ok := e.table.DisplayForScene(scene)
		if !ok {
			slog.Debug("no display mapping for scene", "scene", scene)
			return true
		}
		target = d
	}

	if target == e.state.display {
		slog.Debug("display already current", "display", target)
		return true
	}

	token := e.tokens.Generate()
	slog.Info("syncing scene to display",
		"sync_token", token,
		"scene", scene,
		"display", target,
	)

	if err := e.displays.SetDisplay(target); err != nil {
		// Do not assume the write landed: the tracker keeps its old
		// display so the next genuine event re-attempts naturally.
		slog.Error("set display failed",
			"sync_token", token,
			"display", target,
			"error", err,
		)
		e.journalTransition(token, journal.DirectionOBSToTM, scene, target.String(), err)
		return false
	}

	e.state.recordDisplay(target)
	e.journalTransition(token, journal.DirectionOBSToTM, scene, target.String(), nil)
	return true
}

// syncOverviewLocked resolves the scene target for an overview and issues
// the command. Caller holds the mutex. Returns false only when the
// command itself failed; misses and no-ops return true.
//
// Positional displays (Intro, InMatch) index the field scene list with the
// overview's field id; an out-of-range or absent field id is a logged
// no-op — the engine never guesses a fallback scene.
func (e *Engine) syncOverviewLocked(ov fieldset.Overview) bool {
	display := ov.Display

	var targetScene string
	if display.Positional() {
		scene, ok := e.table.SceneForDisplay(display, ov.FieldID)
		if !ok {
			slog.Warn("no field scene for display",
				"display", display,
				"field_id", ov.FieldID,
				"field_scenes", len(e.table.FieldScenes()),
			)
			return true
		}
		targetScene = scene
	} else {
		scene, ok := e.table.SceneForDisplay(display, fieldset.NoField)
		if !ok {
			slog.Debug("no scene mapping for display", "display", display)
			return true
		}
		targetScene = scene
	}

	if targetScene == e.state.scene {
		slog.Debug("scene already current", "scene", targetScene)
		return true
	}

	token := e.tokens.Generate()
	slog.Info("syncing display to scene",
		"sync_token", token,
		"display", display,
		"scene", targetScene,
	)

	if err := e.scenes.SetScene(targetScene); err != nil {
		slog.Error("set scene failed",
			"sync_token", token,
			"scene", targetScene,
			"error", err,
		)
		e.journalTransition(token, journal.DirectionTMToOBS, display.String(), targetScene, err)
		return false
	}

	e.state.recordScene(targetScene)
	e.journalTransition(token, journal.DirectionTMToOBS, display.String(), targetScene, nil)
	return true
}

// journalTransition records an issued command when a journal is attached.
// Journal failures are logged and never interrupt syncing.
func (e *Engine) journalTransition(token, direction, trigger, target string, cmdErr error) {
	if e.journal == nil {
		return
	}

	t := journal.Transition{
		Token:     token,
		Direction: direction,
		Trigger:   trigger,
		Target:    target,
		Outcome:   journal.OutcomeOK,
	}
	if cmdErr != nil {
		t.Outcome = journal.OutcomeCommandError
		t.Error = cmdErr.Error()
	}

	if _, err := e.journal.Record(context.Background(), t); err != nil {
		slog.Warn("journal write failed", "sync_token", token, "error", err)
	}
}
