package review

import (
	"fmt"
	"strings"
)

// formatSummaryBody renders the run's outcome as the PR-level Markdown
// comment.
func formatSummaryBody(result *Result) string {
	var b strings.Builder

	b.WriteString("## Automated Review\n\n")

	if s := result.Summary; s != nil {
		if s.Classification != "" {
			fmt.Fprintf(&b, "**Change type:** %s\n\n", s.Classification)
		}
		if len(s.Overview) > 0 {
			b.WriteString("### Overview\n")
			for _, point := range s.Overview {
				b.WriteString("- " + point + "\n")
			}
			b.WriteString("\n")
		}
		if len(s.Risks) > 0 {
			b.WriteString("### Risks\n")
			for _, risk := range s.Risks {
				fmt.Fprintf(&b, "- `%s` %s\n", risk.Tag, risk.Description)
			}
			b.WriteString("\n")
		}
		var tests []string
		for _, h := range s.Hunks {
			tests = append(tests, h.SuggestedTests...)
		}
		if len(tests) > 0 {
			b.WriteString("### Suggested tests\n")
			for _, test := range tests {
				b.WriteString("- " + test + "\n")
			}
			b.WriteString("\n")
		}
		if s.Decision.Reasoning != "" {
			fmt.Fprintf(&b, "**Recommendation:** %s. %s\n\n", s.Decision.Recommendation, s.Decision.Reasoning)
		}
	}

	fmt.Fprintf(&b, "_%d finding(s), %d comment(s) posted", len(result.Findings), result.CommentsPosted)
	if len(result.Resolved) > 0 {
		fmt.Fprintf(&b, ", %d earlier comment(s) resolved", len(result.Resolved))
	}
	b.WriteString("._\n")

	return b.String()
}
