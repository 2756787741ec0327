package models

import (
	"fmt"
	"strings"
)

// Severity classifies how strongly a finding should be acted on. The values
// map directly to the markers used in posted review comments.
type Severity string

const (
	SeverityRequired Severity = "required"
	SeverityOptional Severity = "optional"
	SeverityNit      Severity = "nit"
	SeverityFYI      Severity = "fyi"
	SeverityPraise   Severity = "praise"
)

// ParseSeverity normalizes a model-emitted severity string. Unknown values
// yield the empty Severity rather than an error; the field is optional.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityRequired, SeverityOptional, SeverityNit, SeverityFYI, SeverityPraise:
		return Severity(strings.ToLower(strings.TrimSpace(s)))
	}
	return ""
}

// IsBlocking reports whether a finding with this severity should block a merge.
func (s Severity) IsBlocking() bool {
	return s == SeverityRequired
}

// Finding is one model-reported issue against a diff. Line is nil until the
// line resolver has matched LineToMatch against the diff's line map; a finding
// with a nil Line must never be posted as a positioned comment.
type Finding struct {
	FilePath    string
	Line        *int
	LineToMatch string
	Message     string
	Severity    Severity
	Suggestion  string
}

// Resolved reports whether the finding carries a concrete line number.
func (f *Finding) Resolved() bool {
	return f.Line != nil
}

// ResolvedComment is the model's claim that a previously posted comment has
// been addressed by the current diff.
type ResolvedComment struct {
	// CommentID is the platform comment ID when the model supplied one,
	// otherwise the synthetic "path:line" key.
	CommentID string
	FilePath  string
	Line      int
	Reason    string
}

// Key returns the synthetic path:line key for this comment.
func (r *ResolvedComment) Key() string {
	return fmt.Sprintf("%s:%d", r.FilePath, r.Line)
}

// DiffHunk describes a single @@-delimited block of a unified diff.
type DiffHunk struct {
	OldStartLine int
	OldLineCount int
	NewStartLine int
	NewLineCount int
	Content      string
}

// ProcessableChunk is one reviewable unit of a diff: either a single hunk or
// a whole file's diff, together with the file headers that make it
// self-describing. FilePath is empty when no file header could be discovered;
// such chunks are still reviewable as opaque text but cannot be line-mapped.
type ProcessableChunk struct {
	FilePath string
	Content  string
	Hunk     DiffHunk
}

// DiffLineMap maps file path -> raw diff-line text (marker included) ->
// new-file line number. For duplicate line text within one file, the first
// occurrence's number is retained.
type DiffLineMap map[string]map[string]int

// RiskTag is a closed classification of review risks.
type RiskTag string

const (
	RiskSecurity     RiskTag = "SEC"
	RiskPerformance  RiskTag = "PERF"
	RiskArchitecture RiskTag = "ARCH"
	RiskTesting      RiskTag = "TEST"
	RiskStyle        RiskTag = "STYLE"
	RiskDependency   RiskTag = "DEP"
	RiskSEO          RiskTag = "SEO"
)

// ParseRiskTag returns the tag and whether it belongs to the known set.
func ParseRiskTag(s string) (RiskTag, bool) {
	tag := RiskTag(strings.ToUpper(strings.TrimSpace(s)))
	switch tag {
	case RiskSecurity, RiskPerformance, RiskArchitecture, RiskTesting,
		RiskStyle, RiskDependency, RiskSEO:
		return tag, true
	}
	return "", false
}

// RiskItem is one tagged risk called out by the summarization pass.
type RiskItem struct {
	Tag         RiskTag
	Description string
}

// HunkSummary is the summarization pass's take on a single hunk.
type HunkSummary struct {
	FilePath       string
	Overview       string
	Risks          []RiskItem
	SuggestedTests []string
}

// Recommendation is the summary pass's review decision.
type Recommendation string

const (
	RecommendApprove        Recommendation = "APPROVE"
	RecommendRequestChanges Recommendation = "REQUEST_CHANGES"
	RecommendComment        Recommendation = "COMMENT"
)

// ParseRecommendation maps free text onto the decision enum, defaulting to
// COMMENT for anything unrecognized.
func ParseRecommendation(s string) Recommendation {
	switch Recommendation(strings.ToUpper(strings.TrimSpace(s))) {
	case RecommendApprove:
		return RecommendApprove
	case RecommendRequestChanges:
		return RecommendRequestChanges
	}
	return RecommendComment
}

// Decision is the summarization pass's recommendation plus its reasoning.
type Decision struct {
	Recommendation Recommendation
	Reasoning      string
}

// DiffSummary is the product of the summarization pass: cross-cutting context
// the review pass may reference. Immutable once produced.
type DiffSummary struct {
	Classification string
	Overview       []string
	Risks          []RiskItem
	Hunks          []HunkSummary
	Decision       Decision
}

// PostedComment is a review comment the bot has posted, either in a prior run
// (supplied as input for deduplication) or during the current one.
type PostedComment struct {
	ID       string
	FilePath string
	Line     int
	Body     string
}
