package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackfast/internal/models"
)

var happyPath = []State{
	StateAnalyzingProject,
	StateLoadingCatalog,
	StateScoring,
	StateCompleting,
	StateDeduplicating,
	StateDone,
}

func TestTracker_HappyPath(t *testing.T) {
	var seen []Transition
	tr := NewTracker(func(x Transition) { seen = append(seen, x) }, nil)
	assert.Equal(t, StateIdle, tr.State())

	for _, s := range happyPath {
		require.NoError(t, tr.Advance(s, string(s)))
	}
	assert.Equal(t, StateDone, tr.State())
	assert.Len(t, seen, len(happyPath))
	assert.Equal(t, seen, tr.History())
	assert.Equal(t, StateIdle, seen[0].From)
}

func TestTracker_RejectsSkipsAndBacktracks(t *testing.T) {
	tr := NewTracker(nil, nil)

	assert.ErrorIs(t, tr.Advance(StateScoring, ""), ErrInvalidTransition)
	require.NoError(t, tr.Advance(StateAnalyzingProject, ""))
	assert.ErrorIs(t, tr.Advance(StateIdle, ""), ErrInvalidTransition)
	assert.ErrorIs(t, tr.Advance(StateAnalyzingProject, ""), ErrInvalidTransition)
	assert.Equal(t, StateAnalyzingProject, tr.State())
}

func TestTracker_FailFromAnyNonTerminalState(t *testing.T) {
	for i := range happyPath[:len(happyPath)-1] {
		tr := NewTracker(nil, nil)
		for _, s := range happyPath[:i] {
			require.NoError(t, tr.Advance(s, ""))
		}
		require.NoError(t, tr.Fail("boom"))
		assert.Equal(t, StateFailed, tr.State())
		assert.ErrorIs(t, tr.Fail("again"), ErrInvalidTransition)
		assert.ErrorIs(t, tr.Advance(StateDone, ""), ErrInvalidTransition)
	}
}

func TestTracker_NoFailAfterDone(t *testing.T) {
	tr := NewTracker(nil, nil)
	for _, s := range happyPath {
		require.NoError(t, tr.Advance(s, ""))
	}
	assert.ErrorIs(t, tr.Fail("late"), ErrInvalidTransition)
	assert.True(t, tr.State().Terminal())
}

func TestTracker_Warnings(t *testing.T) {
	tr := NewTracker(nil, nil)
	assert.NotNil(t, tr.Warnings())
	assert.Empty(t, tr.Warnings())

	tr.AddWarning(models.WarningSkillGap, "x")
	tr.AddWarning(models.WarningSkillGap, "x")
	tr.AddWarning(models.WarningComplexity, "x")

	assert.Equal(t, []models.Warning{
		{Type: models.WarningSkillGap, Message: "x"},
		{Type: models.WarningComplexity, Message: "x"},
	}, tr.Warnings())
}
