package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jerrylum/vex-tm-obs-sync/internal/fieldset"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	table, err := New(
		[]string{"Field 1", "Field 2"},
		[]Pair{
			{Scene: "Rankings Scene", Display: fieldset.DisplayRankings},
			{Scene: "Logo Scene", Display: fieldset.DisplayLogo},
		},
	)
	require.NoError(t, err)
	return table
}

func TestNew_RequiresAtLeastOneAssociation(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one")
}

func TestNew_FieldScenesOnly(t *testing.T) {
	table, err := New([]string{"Field 1"}, nil)
	require.NoError(t, err)
	assert.True(t, table.IsFieldScene("Field 1"))
}

func TestNew_RejectsDuplicateFieldScene(t *testing.T) {
	_, err := New([]string{"Field 1", "Field 1"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate field scene")
}

func TestNew_RejectsDuplicateScene(t *testing.T) {
	_, err := New(nil, []Pair{
		{Scene: "S", Display: fieldset.DisplayRankings},
		{Scene: "S", Display: fieldset.DisplayLogo},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate scene")
}

func TestNew_RejectsDuplicateDisplay(t *testing.T) {
	_, err := New(nil, []Pair{
		{Scene: "A", Display: fieldset.DisplayRankings},
		{Scene: "B", Display: fieldset.DisplayRankings},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate display")
}

func TestNew_RejectsSceneInBothLists(t *testing.T) {
	_, err := New([]string{"Field 1"}, []Pair{
		{Scene: "Field 1", Display: fieldset.DisplayRankings},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both a field scene and a paired scene")
}

func TestNew_RejectsPositionalPair(t *testing.T) {
	_, err := New(nil, []Pair{
		{Scene: "S", Display: fieldset.DisplayInMatch},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positional")
}

func TestNew_RejectsInvalidDisplay(t *testing.T) {
	_, err := New(nil, []Pair{{Scene: "S", Display: fieldset.DisplayUnknown}})
	require.Error(t, err)
}

func TestNew_RejectsEmptySceneName(t *testing.T) {
	_, err := New([]string{""}, nil)
	require.Error(t, err)

	_, err = New(nil, []Pair{{Scene: "", Display: fieldset.DisplayLogo}})
	require.Error(t, err)
}

func TestDisplayForScene(t *testing.T) {
	table := newTestTable(t)

	d, ok := table.DisplayForScene("Rankings Scene")
	require.True(t, ok)
	assert.Equal(t, fieldset.DisplayRankings, d)

	// Field scenes do not resolve through the direct table.
	_, ok = table.DisplayForScene("Field 1")
	assert.False(t, ok)

	_, ok = table.DisplayForScene("Unknown Scene")
	assert.False(t, ok)
}

func TestSceneForDisplay_Direct(t *testing.T) {
	table := newTestTable(t)

	scene, ok := table.SceneForDisplay(fieldset.DisplayLogo, fieldset.NoField)
	require.True(t, ok)
	assert.Equal(t, "Logo Scene", scene)

	_, ok = table.SceneForDisplay(fieldset.DisplaySchedule, fieldset.NoField)
	assert.False(t, ok)
}

func TestSceneForDisplay_Positional(t *testing.T) {
	table := newTestTable(t)

	scene, ok := table.SceneForDisplay(fieldset.DisplayInMatch, 1)
	require.True(t, ok)
	assert.Equal(t, "Field 2", scene)

	scene, ok = table.SceneForDisplay(fieldset.DisplayIntro, 0)
	require.True(t, ok)
	assert.Equal(t, "Field 1", scene)

	// Out of range: miss, not a crash.
	_, ok = table.SceneForDisplay(fieldset.DisplayInMatch, 5)
	assert.False(t, ok)

	_, ok = table.SceneForDisplay(fieldset.DisplayInMatch, fieldset.NoField)
	assert.False(t, ok)
}

func TestNormalization_NFCEquivalence(t *testing.T) {
	// Composed U+00E9 vs decomposed U+0065 U+0301.
	composed := "Caf\u00e9"
	decomposed := "Cafe\u0301"

	table, err := New([]string{decomposed}, nil)
	require.NoError(t, err)
	assert.True(t, table.IsFieldScene(composed))

	scene, ok := table.SceneForDisplay(fieldset.DisplayIntro, 0)
	require.True(t, ok)
	assert.Equal(t, composed, scene)
}

func TestFieldScenesCopy(t *testing.T) {
	table := newTestTable(t)
	scenes := table.FieldScenes()
	scenes[0] = "mutated"
	assert.Equal(t, []string{"Field 1", "Field 2"}, table.FieldScenes())
}

func TestPairsOrdered(t *testing.T) {
	table := newTestTable(t)
	pairs := table.Pairs()
	require.Len(t, pairs, 2)
	// Ordered by display value: Logo before Rankings.
	assert.Equal(t, fieldset.DisplayLogo, pairs[0].Display)
	assert.Equal(t, fieldset.DisplayRankings, pairs[1].Display)
}
