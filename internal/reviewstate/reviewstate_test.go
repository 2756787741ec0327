package reviewstate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffpilot/pkg/models"
)

func intPtr(n int) *int { return &n }

func TestNew_InitialState(t *testing.T) {
	state := New(intPtr(5), nil)

	assert.Equal(t, 0, state.CurrentTurn)
	assert.False(t, state.CheckedExistingComments)
	assert.False(t, state.SubmittedReview)
	assert.Empty(t, state.ToolCallsThisTurn)
	assert.Empty(t, state.PostedThisRun)
}

func TestAdvanceTurn_ClearsToolCallLog(t *testing.T) {
	state := New(nil, nil)

	state.AdvanceTurn()
	state.RecordToolCall("shell")
	state.RecordToolCall("fetch_file")
	require.Equal(t, []string{"shell", "fetch_file"}, state.ToolCallsThisTurn)

	state.AdvanceTurn()
	assert.Equal(t, 2, state.CurrentTurn)
	assert.Empty(t, state.ToolCallsThisTurn)
}

func TestProgress_Bounded(t *testing.T) {
	state := New(intPtr(5), nil)
	for i := 0; i < 4; i++ {
		state.AdvanceTurn()
	}

	progress := state.Progress()
	assert.Equal(t, 4, progress.TurnsUsed)
	require.NotNil(t, progress.TurnsRemaining)
	assert.Equal(t, 1, *progress.TurnsRemaining)
	require.NotNil(t, progress.TurnsPercentUsed)
	assert.InDelta(t, 80.0, *progress.TurnsPercentUsed, 0.001)
}

func TestProgress_Unlimited(t *testing.T) {
	state := New(nil, nil)
	for i := 0; i < 50; i++ {
		state.AdvanceTurn()
	}

	progress := state.Progress()
	assert.Equal(t, 50, progress.TurnsUsed)
	assert.Nil(t, progress.TurnsRemaining)
	assert.Nil(t, progress.TurnsPercentUsed)
}

func TestGenerateInterventions_BudgetBoundaries(t *testing.T) {
	cases := []struct {
		turnsUsed   int
		wantWarning bool
		wantFinal   bool
	}{
		{turnsUsed: 0, wantWarning: false, wantFinal: false}, // 10 remaining
		{turnsUsed: 6, wantWarning: false, wantFinal: false}, // 4 remaining
		{turnsUsed: 7, wantWarning: true, wantFinal: false},  // 3 remaining
		{turnsUsed: 8, wantWarning: true, wantFinal: false},  // 2 remaining
		{turnsUsed: 9, wantWarning: true, wantFinal: false},  // 1 remaining
		{turnsUsed: 10, wantWarning: false, wantFinal: true}, // 0 remaining
		{turnsUsed: 12, wantWarning: false, wantFinal: true}, // past the cap
	}

	for _, tc := range cases {
		state := New(intPtr(10), nil)
		for i := 0; i < tc.turnsUsed; i++ {
			state.AdvanceTurn()
		}

		out := state.GenerateInterventions()
		assert.Equal(t, tc.wantWarning, strings.Contains(out, "Turn budget warning"),
			"turnsUsed=%d warning", tc.turnsUsed)
		assert.Equal(t, tc.wantFinal, strings.Contains(out, "final turn"),
			"turnsUsed=%d final", tc.turnsUsed)
	}
}

func TestGenerateInterventions_UnlimitedNeverWarns(t *testing.T) {
	state := New(nil, nil)
	for i := 0; i < 100; i++ {
		state.AdvanceTurn()
		out := state.GenerateInterventions()
		assert.NotContains(t, out, "Turn budget warning")
		assert.NotContains(t, out, "final turn")
	}
}

func TestGenerateInterventions_Scenario5(t *testing.T) {
	// maxTurns=5, four turns taken: budget warning present, final-turn absent.
	state := New(intPtr(5), nil)
	for i := 0; i < 4; i++ {
		state.AdvanceTurn()
	}

	out := state.GenerateInterventions()
	assert.Contains(t, out, "Turn budget warning")
	assert.NotContains(t, out, "final turn")
}

func TestGenerateInterventions_CheckCommentsReminder(t *testing.T) {
	prior := []models.PostedComment{{ID: "1", FilePath: "a.go", Line: 3, Body: "old"}}

	state := New(nil, prior)
	state.AdvanceTurn()
	state.AdvanceTurn()
	assert.NotContains(t, state.GenerateInterventions(), "previous comments",
		"reminder must not fire before turn 3")

	state.AdvanceTurn()
	out := state.GenerateInterventions()
	assert.Contains(t, out, "previous comments")

	// Idempotent: it keeps firing each turn until the flag is set.
	state.AdvanceTurn()
	assert.Contains(t, state.GenerateInterventions(), "previous comments")

	state.MarkCheckedExistingComments()
	assert.NotContains(t, state.GenerateInterventions(), "previous comments")
}

func TestGenerateInterventions_NoReminderWithoutPriorComments(t *testing.T) {
	state := New(nil, nil)
	for i := 0; i < 5; i++ {
		state.AdvanceTurn()
	}
	assert.Empty(t, state.GenerateInterventions())
}

func TestGenerateInterventions_EmptyMeansNoWrapper(t *testing.T) {
	state := New(intPtr(10), nil)
	state.AdvanceTurn()

	out := state.GenerateInterventions()
	assert.Empty(t, out)
	assert.NotContains(t, out, "REVIEW LOOP NOTICE")
}

func TestGenerateInterventions_WrapperAroundMultipleAdvisories(t *testing.T) {
	prior := []models.PostedComment{{ID: "1", FilePath: "a.go", Line: 3}}
	state := New(intPtr(4), prior)
	for i := 0; i < 3; i++ {
		state.AdvanceTurn()
	}

	out := state.GenerateInterventions()
	assert.True(t, strings.HasPrefix(out, "[REVIEW LOOP NOTICE]"))
	assert.True(t, strings.HasSuffix(out, "[/REVIEW LOOP NOTICE]"))
	assert.Contains(t, out, "Turn budget warning")
	assert.Contains(t, out, "previous comments")
}

func TestFinalTurn(t *testing.T) {
	state := New(intPtr(2), nil)
	assert.False(t, state.FinalTurn())
	state.AdvanceTurn()
	assert.False(t, state.FinalTurn())
	state.AdvanceTurn()
	assert.True(t, state.FinalTurn())

	unlimited := New(nil, nil)
	for i := 0; i < 20; i++ {
		unlimited.AdvanceTurn()
	}
	assert.False(t, unlimited.FinalTurn())
}

func TestFindSimilarPreviousComment(t *testing.T) {
	prior := []models.PostedComment{
		{ID: "1", FilePath: "a.go", Line: 100, Body: "first"},
		{ID: "2", FilePath: "a.go", Line: 40, Body: "second"},
		{ID: "3", FilePath: "b.go", Line: 10, Body: "third"},
	}
	state := New(nil, prior)

	// Within the 10-line window, first match wins.
	match := state.FindSimilarPreviousComment("a.go", 95)
	require.NotNil(t, match)
	assert.Equal(t, "1", match.ID)

	// Exactly at the window edge.
	match = state.FindSimilarPreviousComment("a.go", 50)
	require.NotNil(t, match)
	assert.Equal(t, "2", match.ID)

	// Outside the window or wrong file.
	assert.Nil(t, state.FindSimilarPreviousComment("a.go", 60))
	assert.Nil(t, state.FindSimilarPreviousComment("c.go", 100))
}

func TestWasCommentPostedThisRun(t *testing.T) {
	state := New(nil, nil)
	state.RecordPostedComment(models.PostedComment{FilePath: "a.go", Line: 12, Body: "x"})

	assert.True(t, state.WasCommentPostedThisRun("a.go", 12))
	assert.False(t, state.WasCommentPostedThisRun("a.go", 13))
	assert.False(t, state.WasCommentPostedThisRun("b.go", 12))
}
