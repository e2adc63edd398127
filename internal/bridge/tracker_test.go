package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Jerrylum/vex-tm-obs-sync/internal/fieldset"
)

func TestTrackerZeroValue(t *testing.T) {
	var tr tracker
	assert.Empty(t, tr.scene)
	assert.Equal(t, fieldset.DisplayUnknown, tr.display)
}

func TestTrackerRecordScene(t *testing.T) {
	var tr tracker

	assert.True(t, tr.recordScene("Field 1"))
	assert.Equal(t, "Field 1", tr.scene)

	// Idempotent: same value again is a no-op.
	assert.False(t, tr.recordScene("Field 1"))

	assert.True(t, tr.recordScene("Field 2"))
	assert.Equal(t, "Field 2", tr.scene)
}

func TestTrackerRecordDisplay(t *testing.T) {
	var tr tracker

	assert.True(t, tr.recordDisplay(fieldset.DisplayIntro))
	assert.False(t, tr.recordDisplay(fieldset.DisplayIntro))
	assert.True(t, tr.recordDisplay(fieldset.DisplayInMatch))
	assert.Equal(t, fieldset.DisplayInMatch, tr.display)
}

func TestTrackerSidesIndependent(t *testing.T) {
	var tr tracker

	tr.recordScene("Field 1")
	assert.Equal(t, fieldset.DisplayUnknown, tr.display)

	tr.recordDisplay(fieldset.DisplayIntro)
	assert.Equal(t, "Field 1", tr.scene)
}
