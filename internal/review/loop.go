package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/diffpilot/internal/ai"
	"github.com/diffpilot/internal/diffstat"
	"github.com/diffpilot/internal/lineresolve"
	"github.com/diffpilot/internal/prompts"
	"github.com/diffpilot/internal/providers"
	"github.com/diffpilot/internal/respparse"
	"github.com/diffpilot/internal/retry"
	"github.com/diffpilot/internal/reviewstate"
	"github.com/diffpilot/internal/tools"
	"github.com/diffpilot/pkg/models"
)

// loopRunner drives the agentic review conversation for one run.
type loopRunner struct {
	service  *Service
	state    *reviewstate.State
	registry *tools.Registry
	ref      providers.PRRef
	diff     string

	messages []ai.Message

	// notices queues held-back-finding messages for injection at the top
	// of the next turn; notified tracks which positions the agent has
	// already been told about, so a re-report after the notice counts as
	// the agent's final call on the duplicate.
	notices  []string
	notified map[string]bool
}

// run advances the conversation turn by turn until the model stops calling
// tools or the turn budget forces a close. Each turn's text is parsed for
// findings; the model may report comments mid-loop while still
// investigating.
func (l *loopRunner) run(ctx context.Context, chunks []models.ProcessableChunk, stats *diffstat.Stats, result *Result) error {
	s := l.service

	l.messages = []ai.Message{
		{Role: ai.RoleSystem, Text: prompts.SystemPrompt},
		{Role: ai.RoleUser, Text: prompts.ReviewTurnPrompt(chunks, stats, result.Summary)},
	}

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("review loop interrupted: %w", err)
		}

		l.state.AdvanceTurn()
		turnNo := l.state.Progress().TurnsUsed

		if notice := l.state.GenerateInterventions(); notice != "" {
			l.messages = append(l.messages, ai.Message{Role: ai.RoleUser, Text: notice})
			s.logger.Log("Turn %d: injected loop notice", turnNo)
		}
		for _, notice := range l.notices {
			l.messages = append(l.messages, ai.Message{Role: ai.RoleUser, Text: notice})
		}
		l.notices = l.notices[:0]

		// Once the budget is spent, withhold tool specs to force a
		// text-only closing response.
		var specs []ai.ToolSpec
		if !l.state.FinalTurn() {
			specs = l.registry.Specs()
		}

		var turn *ai.TurnResult
		res := retry.RetryWithBackoff(ctx, retry.LLMRetryConfig(), func() error {
			var err error
			turn, err = s.client.GenerateTurn(ctx, l.messages, specs)
			return err
		}, s.logger)
		if !res.Success {
			return fmt.Errorf("model call failed on turn %d after %d attempts: %w", turnNo, res.Attempts, res.LastError)
		}
		s.logger.LogResponse(turnNo, turn.Text)

		if turn.Text != "" {
			l.harvest(ctx, turn.Text, result)
		}

		if len(turn.ToolCalls) == 0 {
			return nil
		}
		if l.state.FinalTurn() {
			// The model asked for tools after the budget ran out.
			// Its text has been harvested; stop here.
			s.logger.Log("Turn %d: dropping %d tool call(s), budget exhausted", turnNo, len(turn.ToolCalls))
			return nil
		}

		l.dispatchTools(ctx, turnNo, turn)
	}
}

// dispatchTools executes the turn's tool calls and appends both the
// assistant turn and the tool results to the conversation.
func (l *loopRunner) dispatchTools(ctx context.Context, turnNo int, turn *ai.TurnResult) {
	s := l.service

	l.messages = append(l.messages, ai.Message{
		Role:      ai.RoleAssistant,
		Text:      turn.Text,
		ToolCalls: turn.ToolCalls,
	})

	for _, call := range turn.ToolCalls {
		l.state.RecordToolCall(call.Name)
		if call.Name == tools.PriorCommentsToolName {
			l.state.MarkCheckedExistingComments()
		}

		output, err := l.registry.Dispatch(ctx, call)
		if err != nil {
			// Only context cancellation reaches here; surface it to the
			// model and let the next loop iteration exit.
			output = fmt.Sprintf("tool aborted: %v", err)
		}
		s.logger.LogToolCall(turnNo, call.Name, call.Arguments, output)

		l.messages = append(l.messages, ai.Message{
			Role: ai.RoleTool,
			ToolResult: &ai.ToolResult{
				CallID:  call.ID,
				Name:    call.Name,
				Content: output,
			},
		})
	}
}

// harvest parses one turn's text, resolves finding positions against the
// diff, and posts whatever survives filtering and deduplication.
func (l *loopRunner) harvest(ctx context.Context, text string, result *Result) {
	s := l.service

	parsed := respparse.Parse(text)
	if len(parsed.Findings) == 0 && len(parsed.ResolvedComments) == 0 {
		return
	}

	findings := lineresolve.Resolve(parsed.Findings, l.diff)
	result.Findings = append(result.Findings, findings...)

	for _, f := range findings {
		if !f.Resolved() {
			s.logger.Log("Skipping unpositioned finding for %s: %s", f.FilePath, firstSentence(f.Message))
			continue
		}
		if s.config.BlockingOnly && !f.Severity.IsBlocking() {
			continue
		}
		if l.state.WasCommentPostedThisRun(f.FilePath, *f.Line) {
			s.logger.Log("Skipping duplicate of this run at %s:%d", f.FilePath, *f.Line)
			continue
		}
		if prev := l.state.FindSimilarPreviousComment(f.FilePath, *f.Line); prev != nil {
			// The proximity check is only a pre-filter; the agent gets
			// the candidate and makes the final duplicate decision by
			// reporting the finding again.
			key := fmt.Sprintf("%s:%d", f.FilePath, *f.Line)
			if l.notified == nil {
				l.notified = make(map[string]bool)
			}
			if !l.notified[key] {
				l.notified[key] = true
				l.notices = append(l.notices, fmt.Sprintf(
					"A finding at %s:%d was held back because it sits near your earlier comment (id=%s): %q. If it raises a genuinely different issue, report it again and it will be posted.",
					f.FilePath, *f.Line, prev.ID, firstSentence(prev.Body)))
				s.logger.Log("Held back finding near prior comment %s at %s:%d", prev.ID, f.FilePath, *f.Line)
				continue
			}
			s.logger.Log("Posting re-reported finding near prior comment %s at %s:%d", prev.ID, f.FilePath, *f.Line)
		}
		if s.config.DryRun {
			result.CommentsPosted++
			l.state.RecordPostedComment(models.PostedComment{
				FilePath: f.FilePath, Line: *f.Line, Body: f.Message,
			})
			continue
		}

		posted, err := s.provider.PostFindingComment(ctx, l.ref, f)
		if err != nil {
			s.logger.LogError("posting comment", err)
			continue
		}
		l.state.RecordPostedComment(*posted)
		result.CommentsPosted++
	}

	for _, rc := range parsed.ResolvedComments {
		result.Resolved = append(result.Resolved, rc)
		if s.config.DryRun {
			continue
		}
		if err := s.provider.AcknowledgeResolved(ctx, l.ref, rc); err != nil {
			s.logger.LogError("acknowledging resolved comment", err)
		}
	}
}

func firstSentence(s string) string {
	if i := strings.IndexAny(s, ".\n"); i > 0 {
		return s[:i]
	}
	return s
}
