// Package mapping holds the immutable association table between scene
// switcher scenes and fieldset audience displays.
//
// Two kinds of association exist:
//
//   - Field scenes: an ordered list of scenes, one per competition field.
//     They resolve positionally (by field index) rather than through a
//     fixed pair, because the target depends on which field is active.
//   - Direct pairs: bijective scene <-> display associations for everything
//     that is not field-bound (rankings, schedule, logo, ...).
//
// The table is validated at construction and never mutated afterwards, so
// lookups need no locking.
package mapping

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/Jerrylum/vex-tm-obs-sync/internal/fieldset"
)

// Pair is a direct scene <-> display association.
type Pair struct {
	Scene   string
	Display fieldset.Display
}

// Table resolves scenes to displays and displays to scenes.
//
// INVARIANTS (enforced by New):
//   - no scene appears twice across fieldScenes and pairs
//   - no display appears in more than one pair
//   - at least one association exists
type Table struct {
	fieldScenes    []string
	sceneToDisplay map[string]fieldset.Display
	displayToScene map[fieldset.Display]string
	fieldSceneSet  map[string]bool
}

// NormalizeScene returns the NFC form of a scene name. Scene names arrive
// from two independent programs (settings file, scene switcher events) that
// may disagree on Unicode composition; all comparisons in this package and
// in the sync engine go through this normalization.
func NormalizeScene(name string) string {
	return norm.NFC.String(name)
}

// New builds a validated Table.
//
// fieldScenes is the ordered per-field scene list (index = field number,
// 0-based). pairs are the direct associations. Construction fails if the
// bijectivity invariants are violated or both inputs are empty.
func New(fieldScenes []string, pairs []Pair) (*Table, error) {
	if len(fieldScenes) == 0 && len(pairs) == 0 {
		return nil, fmt.Errorf("mapping: at least one field scene or scene pair is required")
	}

	t := &Table{
		fieldScenes:    make([]string, 0, len(fieldScenes)),
		sceneToDisplay: make(map[string]fieldset.Display, len(pairs)),
		displayToScene: make(map[fieldset.Display]string, len(pairs)),
		fieldSceneSet:  make(map[string]bool, len(fieldScenes)),
	}

	for _, raw := range fieldScenes {
		scene := NormalizeScene(raw)
		if scene == "" {
			return nil, fmt.Errorf("mapping: field scene name cannot be empty")
		}
		if t.fieldSceneSet[scene] {
			return nil, fmt.Errorf("mapping: duplicate field scene %q", scene)
		}
		t.fieldSceneSet[scene] = true
		t.fieldScenes = append(t.fieldScenes, scene)
	}

	for _, pair := range pairs {
		scene := NormalizeScene(pair.Scene)
		if scene == "" {
			return nil, fmt.Errorf("mapping: scene name cannot be empty")
		}
		if !pair.Display.Valid() {
			return nil, fmt.Errorf("mapping: invalid display for scene %q", scene)
		}
		if pair.Display.Positional() {
			// Intro/InMatch are reached via field scenes, never via a
			// direct pair; allowing both would make reverse resolution
			// ambiguous.
			return nil, fmt.Errorf("mapping: display %s is positional and cannot be paired directly (scene %q)", pair.Display, scene)
		}
		if t.fieldSceneSet[scene] {
			return nil, fmt.Errorf("mapping: scene %q is both a field scene and a paired scene", scene)
		}
		if _, exists := t.sceneToDisplay[scene]; exists {
			return nil, fmt.Errorf("mapping: duplicate scene %q in pairs", scene)
		}
		if _, exists := t.displayToScene[pair.Display]; exists {
			return nil, fmt.Errorf("mapping: duplicate display %s in pairs", pair.Display)
		}
		t.sceneToDisplay[scene] = pair.Display
		t.displayToScene[pair.Display] = scene
	}

	return t, nil
}

// DisplayForScene returns the direct mapping partner for a scene.
// Field scenes and unmapped scenes return false: field scenes resolve
// through the match state, not through this table.
func (t *Table) DisplayForScene(scene string) (fieldset.Display, bool) {
	d, ok := t.sceneToDisplay[NormalizeScene(scene)]
	return d, ok
}

// SceneForDisplay resolves a display back to a scene.
//
// For positional displays (Intro, InMatch) the scene is fieldScenes
// [fieldIndex]; an out-of-range index returns false so the caller can
// report the miss instead of guessing. For all other displays fieldIndex
// is ignored and the direct pair (if any) is returned.
func (t *Table) SceneForDisplay(d fieldset.Display, fieldIndex int) (string, bool) {
	if d.Positional() {
		if fieldIndex < 0 || fieldIndex >= len(t.fieldScenes) {
			return "", false
		}
		return t.fieldScenes[fieldIndex], true
	}
	scene, ok := t.displayToScene[d]
	return scene, ok
}

// IsFieldScene reports whether the scene is one of the per-field scenes.
func (t *Table) IsFieldScene(scene string) bool {
	return t.fieldSceneSet[NormalizeScene(scene)]
}

// FieldScenes returns the ordered field scene list. The returned slice is
// a copy; the table stays immutable.
func (t *Table) FieldScenes() []string {
	out := make([]string, len(t.fieldScenes))
	copy(out, t.fieldScenes)
	return out
}

// Pairs returns the direct associations ordered by display value.
// Used by the validate command to print the table.
func (t *Table) Pairs() []Pair {
	out := make([]Pair, 0, len(t.displayToScene))
	for d := fieldset.DisplayBlank; d <= fieldset.DisplayInspection; d++ {
		if scene, ok := t.displayToScene[d]; ok {
			out = append(out, Pair{Scene: scene, Display: d})
		}
	}
	return out
}
