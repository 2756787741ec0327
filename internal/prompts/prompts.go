// Package prompts assembles the model-facing text for the review and
// summarization passes.
package prompts

import (
	"fmt"
	"strings"

	"github.com/diffpilot/internal/diffstat"
	"github.com/diffpilot/pkg/models"
)

// SystemPrompt is the standing instruction set for the review agent. The
// response format matches what respparse extracts; quoting the literal diff
// line (marker included) is what makes line resolution possible.
const SystemPrompt = `You are a code review agent examining a pull request diff.

Use your tools to investigate: run shell commands, fetch full file contents,
inspect the dependency graph, and search the web for API documentation when a
usage looks suspicious. When you are confident about an issue, report it.

Report review comments in exactly this format:

<comments>
  <comment>
    <severity>required|optional|nit|fyi|praise</severity>
    <file>relative/path</file>
    <line>+   the literal diff line text, copied exactly, marker included</line>
    <message>what is wrong and why it matters</message>
    <suggestion>optional replacement code</suggestion>
  </comment>
</comments>

If an earlier review comment is addressed by this diff, acknowledge it:

<resolvedComments>
  <resolved>
    <commentId>id if known</commentId>
    <path>relative/path</path>
    <line>123</line>
    <reason>why it no longer applies</reason>
  </resolved>
</resolvedComments>

Copy the <line> text verbatim from the diff. Do not guess line numbers; the
quoted text is how your comment gets positioned. Severity "required" blocks
the merge; use it only for real defects.`

// SummarySystemPrompt drives the single-shot summarization pass.
const SummarySystemPrompt = `You are summarizing a pull request diff before a detailed review.

Respond in exactly this format:

<summary>
  <classification>feature|fix|refactor|docs|chore</classification>
  <overview>
    <point>one short bullet per point</point>
  </overview>
  <risks>
    <risk tag="SEC|PERF|ARCH|TEST|STYLE|DEP|SEO">description</risk>
  </risks>
  <hunks>
    <hunk>
      <file>relative/path</file>
      <overview>what this hunk changes</overview>
      <risk tag="TEST">optional per-hunk risk</risk>
      <test>a test worth adding</test>
    </hunk>
  </hunks>
  <decision>
    <recommendation>APPROVE|REQUEST_CHANGES|COMMENT</recommendation>
    <reasoning>one or two sentences</reasoning>
  </decision>
</summary>`

// ReviewTurnPrompt builds the opening user message for the review loop.
func ReviewTurnPrompt(chunks []models.ProcessableChunk, stats *diffstat.Stats, summary *models.DiffSummary) string {
	var b strings.Builder

	b.WriteString("Review the following pull request diff.\n\n")
	if stats != nil {
		b.WriteString(stats.Summary())
		b.WriteString("\n\n")
	}
	if summary != nil && len(summary.Overview) > 0 {
		b.WriteString("Context from the summarization pass:\n")
		for _, point := range summary.Overview {
			b.WriteString("- " + point + "\n")
		}
		for _, risk := range summary.Risks {
			fmt.Fprintf(&b, "- [%s] %s\n", risk.Tag, risk.Description)
		}
		b.WriteString("\n")
	}

	for i, chunk := range chunks {
		name := chunk.FilePath
		if name == "" {
			name = "(unknown file)"
		}
		fmt.Fprintf(&b, "=== Chunk %d: %s ===\n", i+1, name)
		b.WriteString(AnnotateHunk(chunk.Content))
		b.WriteString("\n")
	}

	return b.String()
}

// SummaryPrompt builds the user message for the summarization pass.
func SummaryPrompt(diffText string, stats *diffstat.Stats) string {
	var b strings.Builder
	b.WriteString("Summarize this pull request diff.\n\n")
	if stats != nil {
		b.WriteString(stats.Summary())
		b.WriteString("\n\n")
	}
	b.WriteString(diffText)
	return b.String()
}

// AnnotateHunk adds pseudo line numbers to a unified diff hunk for
// readability. It parses the @@ -a,b +c,d @@ header and then walks
// context/added/removed lines, numbering each against the side it exists on.
// Lines before the header (file headers carried into the chunk) pass through
// untouched.
func AnnotateHunk(hunk string) string {
	lines := strings.Split(hunk, "\n")
	if len(lines) == 0 {
		return hunk
	}

	var out []string
	var oldN, newN int
	headerParsed := false

	for _, ln := range lines {
		if !headerParsed && strings.HasPrefix(ln, "@@ ") {
			oldN, newN = headerStartLines(ln)
			out = append(out, ln)
			headerParsed = true
			continue
		}

		if !headerParsed || ln == "" {
			out = append(out, ln)
			continue
		}

		switch ln[0] {
		case ' ':
			out = append(out, fmt.Sprintf("%6d %6d | %s", oldN, newN, ln))
			oldN++
			newN++
		case '+':
			out = append(out, fmt.Sprintf("%6s %6d | %s", "-", newN, ln))
			newN++
		case '-':
			out = append(out, fmt.Sprintf("%6d %6s | %s", oldN, "-", ln))
			oldN++
		default:
			out = append(out, ln)
		}
	}

	return strings.Join(out, "\n")
}

func headerStartLines(header string) (oldStart, newStart int) {
	oldStart = segmentStart(header, '-')
	newStart = segmentStart(header, '+')
	return
}

func segmentStart(header string, marker byte) int {
	idx := strings.IndexByte(header, marker)
	if idx == -1 {
		return 0
	}
	segment := header[idx+1:]
	if ws := strings.IndexByte(segment, ' '); ws >= 0 {
		segment = segment[:ws]
	}
	if comma := strings.IndexByte(segment, ','); comma >= 0 {
		segment = segment[:comma]
	}
	n := 0
	for _, c := range segment {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
