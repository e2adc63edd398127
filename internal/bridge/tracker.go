package bridge

import "github.com/Jerrylum/vex-tm-obs-sync/internal/fieldset"

// tracker holds the last-observed state on each side of the bridge.
//
// It is a plain data holder with no locking of its own: every access goes
// through the Engine's mutex. It exists as a separate type to make the
// loop-suppression invariant explicit and testable in isolation — the
// record methods are idempotent and report whether the value changed, and
// "no change" is exactly the condition under which a handler must not act.
//
// The zero value means "nothing observed yet" on both sides: an empty
// scene name and fieldset.DisplayUnknown.
type tracker struct {
	scene   string
	display fieldset.Display
}

// recordScene stores the scene as last-known and reports whether it
// differed from the previous value. Recording the same scene twice is a
// no-op returning false.
func (t *tracker) recordScene(scene string) bool {
	if scene == t.scene {
		return false
	}
	t.scene = scene
	return true
}

// recordDisplay stores the display as last-known and reports whether it
// differed from the previous value.
func (t *tracker) recordDisplay(d fieldset.Display) bool {
	if d == t.display {
		return false
	}
	t.display = d
	return true
}
