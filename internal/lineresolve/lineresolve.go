// Package lineresolve assigns concrete new-file line numbers to findings
// whose position is only known as a quoted fragment of diff-line text.
package lineresolve

import (
	"strings"

	"github.com/diffpilot/internal/diffindex"
	"github.com/diffpilot/pkg/models"
)

// Resolve matches each finding's LineToMatch against the diff's line map and
// fills in the line number of the earliest added line containing it as a
// substring. Findings with no LineToMatch, an unmapped file, or no matching
// line pass through with Line still nil; the caller must treat those as
// non-postable.
//
// Substring matching is a deliberate heuristic: a short fragment can match
// several lines, and the earliest occurrence wins without any ranking. The
// inputs are not mutated; a new slice is returned.
func Resolve(findings []models.Finding, diffText string) []models.Finding {
	resolved := make([]models.Finding, len(findings))
	copy(resolved, findings)

	lineMap, err := diffindex.BuildLineMap(diffText)
	if err != nil {
		// Structurally broken diff: nothing can be positioned against it.
		return resolved
	}

	for i := range resolved {
		if resolved[i].LineToMatch == "" {
			continue
		}
		fileMap, ok := lineMap[resolved[i].FilePath]
		if !ok {
			continue
		}
		if line, ok := matchLine(fileMap, resolved[i].LineToMatch); ok {
			resolved[i].Line = &line
		}
	}

	return resolved
}

// matchLine returns the smallest line number among entries whose text
// contains fragment. Scanning by line number keeps the result deterministic
// and equal to the first occurrence in the file.
func matchLine(fileMap map[string]int, fragment string) (int, bool) {
	best := 0
	found := false
	for text, line := range fileMap {
		if !strings.Contains(text, fragment) {
			continue
		}
		if !found || line < best {
			best = line
			found = true
		}
	}
	return best, found
}
