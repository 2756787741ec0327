package respparse

import (
	"regexp"
	"strings"

	"github.com/diffpilot/pkg/models"
)

var (
	summaryWrapperRe = regexp.MustCompile(`(?s)<summary>(.*?)</summary>`)
	classificationRe = regexp.MustCompile(`(?s)<classification>(.*?)</classification>`)
	overviewRe       = regexp.MustCompile(`(?s)<overview>(.*?)</overview>`)
	pointRe          = regexp.MustCompile(`(?s)<point>(.*?)</point>`)
	riskRe           = regexp.MustCompile(`(?s)<risk tag="([A-Za-z]+)">(.*?)</risk>`)
	hunksWrapperRe   = regexp.MustCompile(`(?s)<hunks>(.*?)</hunks>`)
	hunkBlockRe      = regexp.MustCompile(`(?s)<hunk>(.*?)</hunk>`)
	hunkTestRe       = regexp.MustCompile(`(?s)<test>(.*?)</test>`)
	decisionRe       = regexp.MustCompile(`(?s)<decision>(.*?)</decision>`)
	recommendationRe = regexp.MustCompile(`(?s)<recommendation>(.*?)</recommendation>`)
	reasoningRe      = regexp.MustCompile(`(?s)<reasoning>(.*?)</reasoning>`)
)

// ParseSummary extracts a DiffSummary from the summarization pass's
// completion. Same degradation contract as Parse: missing sections yield zero
// values, risk items with tags outside the known set are dropped, and a
// missing or unrecognized recommendation defaults to COMMENT.
func ParseSummary(responseText string) models.DiffSummary {
	var summary models.DiffSummary

	text := responseText
	if m := summaryWrapperRe.FindStringSubmatch(responseText); m != nil {
		text = m[1]
	}

	summary.Classification = extractField(classificationRe, text)

	// Top-level overview bullets. The hunks section has its own <overview>
	// tags, so scope the search to the text before it.
	topLevel := text
	var hunksText string
	if m := hunksWrapperRe.FindStringSubmatch(text); m != nil {
		hunksText = m[1]
		topLevel = strings.Replace(text, m[0], "", 1)
	}

	if m := overviewRe.FindStringSubmatch(topLevel); m != nil {
		for _, point := range pointRe.FindAllStringSubmatch(m[1], -1) {
			if p := strings.TrimSpace(point[1]); p != "" {
				summary.Overview = append(summary.Overview, p)
			}
		}
	}

	summary.Risks = parseRisks(topLevel)

	for _, block := range hunkBlockRe.FindAllStringSubmatch(hunksText, -1) {
		summary.Hunks = append(summary.Hunks, parseHunkSummary(block[1]))
	}

	summary.Decision = parseDecision(text)
	return summary
}

func parseRisks(text string) []models.RiskItem {
	var risks []models.RiskItem
	for _, m := range riskRe.FindAllStringSubmatch(text, -1) {
		tag, ok := models.ParseRiskTag(m[1])
		if !ok {
			continue
		}
		desc := strings.TrimSpace(m[2])
		if desc == "" {
			continue
		}
		risks = append(risks, models.RiskItem{Tag: tag, Description: desc})
	}
	return risks
}

func parseHunkSummary(block string) models.HunkSummary {
	hs := models.HunkSummary{
		FilePath: extractField(fileRe, block),
		Overview: extractField(overviewRe, block),
		Risks:    parseRisks(block),
	}
	for _, m := range hunkTestRe.FindAllStringSubmatch(block, -1) {
		if test := strings.TrimSpace(m[1]); test != "" {
			hs.SuggestedTests = append(hs.SuggestedTests, test)
		}
	}
	return hs
}

func parseDecision(text string) models.Decision {
	decision := models.Decision{Recommendation: models.RecommendComment}
	m := decisionRe.FindStringSubmatch(text)
	if m == nil {
		return decision
	}
	decision.Recommendation = models.ParseRecommendation(extractField(recommendationRe, m[1]))
	decision.Reasoning = extractField(reasoningRe, m[1])
	return decision
}
