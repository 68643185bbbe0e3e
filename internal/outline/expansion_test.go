package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaptureRestore_SurvivesRebuild(t *testing.T) {
	tr := Build(sample(), nil)
	tr.Find(1).Expanded = true
	tr.Find(3).Expanded = true
	// Hidden under collapsed E, so not captured.
	tr.Find(6).Expanded = true

	set := Capture(tr)
	assert.True(t, set.Captured())
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains(1))
	assert.True(t, set.Contains(3))
	assert.False(t, set.Contains(6))

	rebuilt := Build(sample(), nil)
	Restore(rebuilt, set)
	assert.Equal(t, []string{RootLabel, "A", "C"}, expandedTitles(rebuilt))
}

func TestCapture_IsIndependentOfLaterChanges(t *testing.T) {
	tr := Build(sample(), nil)
	tr.Find(1).Expanded = true
	set := Capture(tr)

	tr.Find(5).Expanded = true
	assert.False(t, set.Contains(5))
}

func TestRestore_ZeroSetKeepsDefaults(t *testing.T) {
	tr := Build(sample(), nil)
	Restore(tr, ExpansionSet{})
	assert.Equal(t, []string{RootLabel}, expandedTitles(tr))
}

func TestRestore_CollapsedRoot(t *testing.T) {
	tr := Build(sample(), nil)
	CollapseAll(tr)
	set := Capture(tr)

	rebuilt := Build(sample(), nil)
	Restore(rebuilt, set)
	assert.Empty(t, expandedTitles(rebuilt))
}
