package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/diffpilot/internal/providers"
)

// PriorCommentsToolName is checked by the review loop to mark the
// checked-existing-comments flag.
const PriorCommentsToolName = "list_prior_comments"

// PriorCommentsTool lists the comments this bot posted on earlier runs, so
// the model can avoid duplicates and report which are now addressed.
type PriorCommentsTool struct {
	provider providers.Provider
	ref      providers.PRRef
}

func NewPriorCommentsTool(provider providers.Provider, ref providers.PRRef) *PriorCommentsTool {
	return &PriorCommentsTool{provider: provider, ref: ref}
}

func (t *PriorCommentsTool) Name() string { return PriorCommentsToolName }

func (t *PriorCommentsTool) Description() string {
	return "List the review comments this bot posted on the pull request in previous runs, with their IDs and positions. Check these before posting, and report any that the current code has addressed."
}

func (t *PriorCommentsTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *PriorCommentsTool) Execute(ctx context.Context, args string) (string, error) {
	comments, err := t.provider.ListBotComments(ctx, t.ref)
	if err != nil {
		return fmt.Sprintf("error listing comments: %v", err), nil
	}
	if len(comments) == 0 {
		return "No previous bot comments on this pull request.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d previous bot comment(s):\n", len(comments))
	for _, c := range comments {
		fmt.Fprintf(&b, "- id=%s %s:%d\n  %s\n", c.ID, c.FilePath, c.Line, firstLine(c.Body))
	}
	return b.String(), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
