// Package reviewstate tracks the bounded agentic review loop: turn counts,
// per-turn tool calls, posted-comment history, and the advisory interventions
// injected into the next model turn. Everything here is a pure in-memory
// state transition; the orchestrator owns one State per review and drives it
// from a single goroutine.
package reviewstate

import (
	"fmt"
	"strings"

	"github.com/diffpilot/pkg/models"
)

// similarLineWindow is how far apart two comments on the same file may be
// while still counting as candidates for deduplication.
const similarLineWindow = 10

// budgetWarningThreshold is the turns-remaining value at or below which the
// wrap-up advisory fires.
const budgetWarningThreshold = 3

// State is the mutable record of one review invocation. It is discarded when
// the run ends; prior-run comments arrive as input, nothing is persisted here.
type State struct {
	CurrentTurn int
	MaxTurns    *int

	// ToolCallsThisTurn is cleared by AdvanceTurn.
	ToolCallsThisTurn []string

	CheckedExistingComments bool
	SubmittedReview         bool

	PriorComments []models.PostedComment
	PostedThisRun []models.PostedComment
}

// New returns the initial state: turn 0, empty histories, flags unset.
// A nil maxTurns means the loop is unbounded and no budget advisory ever
// fires.
func New(maxTurns *int, priorComments []models.PostedComment) *State {
	return &State{
		MaxTurns:      maxTurns,
		PriorComments: priorComments,
	}
}

// AdvanceTurn starts the next turn and clears the per-turn tool-call log.
func (s *State) AdvanceTurn() {
	s.CurrentTurn++
	s.ToolCallsThisTurn = nil
}

// RecordToolCall appends a tool invocation to the current turn's log.
func (s *State) RecordToolCall(toolName string) {
	s.ToolCallsThisTurn = append(s.ToolCallsThisTurn, toolName)
}

// MarkCheckedExistingComments records that the agent has looked at its prior
// comments; the dedup reminder stops firing once this is set.
func (s *State) MarkCheckedExistingComments() {
	s.CheckedExistingComments = true
}

// MarkSubmittedReview records that the agent has submitted its formal review.
func (s *State) MarkSubmittedReview() {
	s.SubmittedReview = true
}

// RecordPostedComment logs a comment posted during this run.
func (s *State) RecordPostedComment(c models.PostedComment) {
	s.PostedThisRun = append(s.PostedThisRun, c)
}

// Progress describes turn-budget consumption. All pointer fields are nil in
// unlimited mode; they are never coerced to zero.
type Progress struct {
	TurnsUsed        int
	TurnsRemaining   *int
	TurnsPercentUsed *float64
}

// Progress reports how much of the turn budget has been used.
func (s *State) Progress() Progress {
	p := Progress{TurnsUsed: s.CurrentTurn}
	if s.MaxTurns == nil {
		return p
	}

	remaining := *s.MaxTurns - s.CurrentTurn
	if remaining < 0 {
		remaining = 0
	}
	p.TurnsRemaining = &remaining

	percent := 0.0
	if *s.MaxTurns > 0 {
		percent = float64(s.CurrentTurn) / float64(*s.MaxTurns) * 100
	}
	p.TurnsPercentUsed = &percent
	return p
}

// GenerateInterventions evaluates each advisory independently and returns
// them concatenated inside a single delimited block, or "" when none apply.
// The advisories are cooperative: enforcement of the hard turn cap (refusing
// further tool dispatch) is the orchestrator's job.
func (s *State) GenerateInterventions() string {
	var advisories []string

	if remaining := s.turnsRemaining(); remaining != nil {
		if *remaining > 0 && *remaining <= budgetWarningThreshold {
			advisories = append(advisories, fmt.Sprintf(
				"Turn budget warning: only %d turn(s) remain. Wrap up now: finish your analysis and post your remaining comments.",
				*remaining))
		}
		if *remaining == 0 {
			advisories = append(advisories,
				"This is your final turn. Submit your review immediately; no further tool calls will be dispatched.")
		}
	}

	if s.CurrentTurn >= 3 && !s.CheckedExistingComments && len(s.PriorComments) > 0 {
		advisories = append(advisories, fmt.Sprintf(
			"You have %d previous comments on this pull request that you have not checked yet. Review them before posting to avoid duplicates.",
			len(s.PriorComments)))
	}

	if len(advisories) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("[REVIEW LOOP NOTICE]\n")
	for _, advisory := range advisories {
		b.WriteString(advisory)
		b.WriteString("\n")
	}
	b.WriteString("[/REVIEW LOOP NOTICE]")
	return b.String()
}

// FinalTurn reports whether the turn budget is exhausted. The orchestrator
// checks this before dispatching tools.
func (s *State) FinalTurn() bool {
	remaining := s.turnsRemaining()
	return remaining != nil && *remaining == 0
}

// FindSimilarPreviousComment returns the first prior-run comment on the same
// file within similarLineWindow lines of the candidate position, or nil. It
// is a pre-filter: the agent makes the final duplicate call with the returned
// comment's body as evidence.
func (s *State) FindSimilarPreviousComment(path string, line int) *models.PostedComment {
	for i := range s.PriorComments {
		prior := &s.PriorComments[i]
		if prior.FilePath != path {
			continue
		}
		delta := prior.Line - line
		if delta < 0 {
			delta = -delta
		}
		if delta <= similarLineWindow {
			return prior
		}
	}
	return nil
}

// WasCommentPostedThisRun reports whether this run already posted a comment
// at exactly path:line.
func (s *State) WasCommentPostedThisRun(path string, line int) bool {
	for _, posted := range s.PostedThisRun {
		if posted.FilePath == path && posted.Line == line {
			return true
		}
	}
	return false
}

func (s *State) turnsRemaining() *int {
	if s.MaxTurns == nil {
		return nil
	}
	remaining := *s.MaxTurns - s.CurrentTurn
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}
