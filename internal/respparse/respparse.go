// Package respparse extracts typed review records from an LLM's quasi-XML
// output. The model's text is untrusted and frequently malformed, so this is
// a tolerant tag-pair scanner, not an XML parser: a bad block is dropped, its
// siblings survive, and nothing in here ever fails on content.
package respparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/diffpilot/pkg/models"
)

// ParseResult is the typed output of one review-pass completion.
type ParseResult struct {
	Findings         []models.Finding
	ResolvedComments []models.ResolvedComment
	PRSummary        string
}

var (
	commentsWrapperRe = regexp.MustCompile(`(?s)<comments>(.*?)</comments>`)
	commentBlockRe    = regexp.MustCompile(`(?s)<comment>(.*?)</comment>`)
	resolvedWrapperRe = regexp.MustCompile(`(?s)<resolvedComments>(.*?)</resolvedComments>`)
	resolvedBlockRe   = regexp.MustCompile(`(?s)<resolved>(.*?)</resolved>`)
	summaryRe         = regexp.MustCompile(`(?s)<prSummary>(.*?)</prSummary>`)

	fileRe       = regexp.MustCompile(`(?s)<file>(.*?)</file>`)
	lineRe       = regexp.MustCompile(`(?s)<line>(.*?)</line>`)
	messageRe    = regexp.MustCompile(`(?s)<message>(.*?)</message>`)
	severityRe   = regexp.MustCompile(`(?s)<severity>(.*?)</severity>`)
	suggestionRe = regexp.MustCompile(`(?s)<suggestion>(.*?)</suggestion>`)

	commentIDRe = regexp.MustCompile(`(?s)<commentId>(.*?)</commentId>`)
	pathRe      = regexp.MustCompile(`(?s)<path>(.*?)</path>`)
	reasonRe    = regexp.MustCompile(`(?s)<reason>(.*?)</reason>`)

	// Matches the "OLD NEW | " prefix that hunk annotation puts in front of
	// each diff line shown to the model.
	annotationPrefixRe = regexp.MustCompile(`^\s*(?:\d+|-)\s+(?:\d+|-) \| `)
)

// Parse extracts findings and resolved-comment acknowledgements from a model
// completion. Records come back in source-text order. Individual blocks with
// missing required fields are dropped silently; truncated or unbalanced XML
// loses whatever follows the break but keeps everything before it.
//
// When neither the <comments> nor the <resolvedComments> wrapper is present
// and nothing was extracted, the whole text is re-scanned for bare <comment>
// blocks. This keeps the legacy unwrapped format working without ever
// double-counting wrapped output.
func Parse(responseText string) ParseResult {
	var result ParseResult

	foundWrapper := false
	if m := commentsWrapperRe.FindStringSubmatch(responseText); m != nil {
		foundWrapper = true
		result.Findings = parseFindings(m[1])
	}
	if m := resolvedWrapperRe.FindStringSubmatch(responseText); m != nil {
		foundWrapper = true
		result.ResolvedComments = parseResolved(m[1])
	}
	if m := summaryRe.FindStringSubmatch(responseText); m != nil {
		result.PRSummary = strings.TrimSpace(m[1])
	}

	if !foundWrapper && len(result.Findings) == 0 && len(result.ResolvedComments) == 0 {
		result.Findings = parseFindings(responseText)
	}

	return result
}

func parseFindings(text string) []models.Finding {
	var findings []models.Finding
	for _, block := range commentBlockRe.FindAllStringSubmatch(text, -1) {
		finding, ok := parseCommentBlock(block[1])
		if !ok {
			continue
		}
		findings = append(findings, finding)
	}
	return findings
}

func parseCommentBlock(block string) (models.Finding, bool) {
	var finding models.Finding

	file := extractField(fileRe, block)
	line := extractLineText(block)
	message := extractField(messageRe, block)
	if file == "" || line == "" || message == "" {
		return finding, false
	}

	finding.FilePath = file
	finding.LineToMatch = stripDiffMarker(stripAnnotationPrefix(line))
	finding.Message = message
	finding.Severity = models.ParseSeverity(extractField(severityRe, block))
	finding.Suggestion = extractField(suggestionRe, block)
	return finding, true
}

func parseResolved(text string) []models.ResolvedComment {
	var resolved []models.ResolvedComment
	for _, block := range resolvedBlockRe.FindAllStringSubmatch(text, -1) {
		rc, ok := parseResolvedBlock(block[1])
		if !ok {
			continue
		}
		resolved = append(resolved, rc)
	}
	return resolved
}

func parseResolvedBlock(block string) (models.ResolvedComment, bool) {
	var rc models.ResolvedComment

	path := extractField(pathRe, block)
	reason := extractField(reasonRe, block)
	lineText := extractField(lineRe, block)
	if path == "" || reason == "" || lineText == "" {
		return rc, false
	}
	line, err := strconv.Atoi(lineText)
	if err != nil {
		return rc, false
	}

	rc.FilePath = path
	rc.Line = line
	rc.Reason = reason
	rc.CommentID = extractField(commentIDRe, block)
	if rc.CommentID == "" {
		rc.CommentID = rc.Key()
	}
	return rc, true
}

// extractField returns the trimmed inner text of the first match, or "".
func extractField(re *regexp.Regexp, block string) string {
	m := re.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// extractLineText is extractField for the <line> field, preserving interior
// whitespace: the diff marker and the line's own indentation are meaningful.
func extractLineText(block string) string {
	m := lineRe.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.Trim(m[1], "\n")
}

// stripAnnotationPrefix removes the line-number annotation the model sees in
// prompts ("     -      4 | +line") when it quotes the annotated rendering
// instead of the raw diff line.
func stripAnnotationPrefix(line string) string {
	return annotationPrefixRe.ReplaceAllString(line, "")
}

// stripDiffMarker removes a single leading +, -, or space diff marker from a
// model-quoted diff line. Text without a marker is used as-is.
func stripDiffMarker(line string) string {
	if line == "" {
		return line
	}
	switch line[0] {
	case '+', '-', ' ':
		return line[1:]
	}
	return line
}
