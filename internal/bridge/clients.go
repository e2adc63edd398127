package bridge

import "github.com/Jerrylum/vex-tm-obs-sync/internal/fieldset"

// SceneSwitcher is the engine's view of the scene switcher endpoint
// (side A). Implemented by obs.Client in production and by fakes in tests.
//
// Callbacks registered with OnSceneChange are invoked from the client's
// own goroutine; the engine provides its own serialization.
type SceneSwitcher interface {
	// CurrentScene returns the program scene currently on air.
	CurrentScene() (string, error)

	// SetScene switches the program scene. Blocking; returns the
	// endpoint's error if the switch is rejected.
	SetScene(name string) error

	// OnSceneChange registers a callback fired whenever the program
	// scene changes, including changes caused by SetScene.
	OnSceneChange(fn func(name string))
}

// DisplayController is the engine's view of the Tournament Manager
// fieldset endpoint (side B).
type DisplayController interface {
	// Overview returns the fieldset's current audience display and
	// active field index.
	Overview() (fieldset.Overview, error)

	// MatchState returns the current match run state. The engine reads
	// this fresh at resolution time; it is never cached.
	MatchState() (fieldset.MatchState, error)

	// SetDisplay switches the audience display. Blocking.
	SetDisplay(d fieldset.Display) error

	// OnOverviewChange registers a callback fired whenever the fieldset
	// overview changes, including changes caused by SetDisplay.
	OnOverviewChange(fn func(ov fieldset.Overview))
}
