// Package diffindex turns unified diff text into reviewable chunks and a
// per-file lookup table from raw diff-line text to new-file line numbers.
package diffindex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/diffpilot/pkg/models"
)

// Split splits a unified diff into hunk-level chunks. Each chunk starts at an
// @@ header and carries the most recent ---/+++ file headers so it is
// self-describing on its own. Whitespace-only chunks are discarded; chunks
// whose file name could not be discovered are kept with an empty FilePath.
func Split(diffText string) []models.ProcessableChunk {
	if strings.TrimSpace(diffText) == "" {
		return nil
	}

	var chunks []models.ProcessableChunk
	var fileHeader []string
	var currentFile string
	var cur *models.ProcessableChunk

	flush := func() {
		if cur == nil {
			return
		}
		if strings.TrimSpace(cur.Content) != "" {
			chunks = append(chunks, *cur)
		}
		cur = nil
	}

	for _, line := range strings.Split(diffText, "\n") {
		if strings.HasPrefix(line, "diff --git ") {
			flush()
			fileHeader = nil
			currentFile = ""
			continue
		}
		if strings.HasPrefix(line, "@@ ") {
			flush()
			hunk, err := parseHunkHeader(line)
			if err != nil {
				// Unparseable header: the hunk is still reviewable text,
				// but carries no position metadata.
				hunk = models.DiffHunk{}
			}
			content := strings.Join(fileHeader, "\n")
			if content != "" {
				content += "\n"
			}
			cur = &models.ProcessableChunk{
				FilePath: currentFile,
				Content:  content + line + "\n",
				Hunk:     hunk,
			}
			continue
		}

		if cur != nil {
			// Inside a hunk everything up to the next header is content; a
			// line starting with --- here is a deletion, not a file header.
			cur.Content += line + "\n"
			continue
		}

		switch {
		case strings.HasPrefix(line, "--- "):
			fileHeader = []string{line}
		case strings.HasPrefix(line, "+++ "):
			fileHeader = append(fileHeader, line)
			currentFile = newFilePath(line)
		}
	}
	flush()

	return chunks
}

// SplitFiles splits a unified diff on diff --git boundaries, one chunk per
// file with all of its hunks. The chunk's Hunk metadata is that of the file's
// first hunk.
func SplitFiles(diffText string) []models.ProcessableChunk {
	if strings.TrimSpace(diffText) == "" {
		return nil
	}

	parts := strings.Split(diffText, "diff --git ")
	chunks := make([]models.ProcessableChunk, 0, len(parts))
	for i, part := range parts {
		if i == 0 {
			// Text before the first diff --git header is preamble, unless the
			// input starts mid-file without a header at all.
			if strings.TrimSpace(part) == "" || !strings.Contains(part, "@@ ") {
				continue
			}
		} else {
			part = "diff --git " + part
		}
		if strings.TrimSpace(part) == "" {
			continue
		}

		chunk := models.ProcessableChunk{Content: part}
		for _, line := range strings.Split(part, "\n") {
			if chunk.FilePath == "" && strings.HasPrefix(line, "+++ ") {
				chunk.FilePath = newFilePath(line)
			}
			if strings.HasPrefix(line, "@@ ") {
				if hunk, err := parseHunkHeader(line); err == nil {
					chunk.Hunk = hunk
				}
				break
			}
		}
		chunks = append(chunks, chunk)
	}

	return chunks
}

// BuildLineMap scans a diff (or a single chunk of one) and records, per file,
// the new-file line number of every added line, keyed by the raw line text
// including its + marker. If the same text is added twice in one file, the
// first occurrence wins. Context lines advance the counter without being
// recorded; removed lines do not advance it.
//
// A hunk header whose new-start field is missing, non-numeric, or negative is
// a structural error and aborts the build; malformed content lines are not.
func BuildLineMap(diffText string) (models.DiffLineMap, error) {
	lineMap := make(models.DiffLineMap)

	var currentFile string
	var currentNewLine int
	inHunk := false

	for _, line := range strings.Split(diffText, "\n") {
		if strings.HasPrefix(line, "diff --git ") {
			currentFile = ""
			inHunk = false
			continue
		}
		if strings.HasPrefix(line, "@@ ") {
			hunk, err := parseHunkHeader(line)
			if err != nil {
				return nil, err
			}
			currentNewLine = hunk.NewStartLine
			inHunk = true
			continue
		}

		if !inHunk {
			if strings.HasPrefix(line, "+++ ") {
				currentFile = newFilePath(line)
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "+"):
			if currentFile != "" {
				if _, ok := lineMap[currentFile]; !ok {
					lineMap[currentFile] = make(map[string]int)
				}
				if _, ok := lineMap[currentFile][line]; !ok {
					lineMap[currentFile][line] = currentNewLine
				}
			}
			currentNewLine++
		case strings.HasPrefix(line, " "):
			currentNewLine++
		case strings.HasPrefix(line, "-"):
			// Deleted line, absent from the new file.
		default:
			// "\ No newline at end of file" and empty trailing lines.
		}
	}

	return lineMap, nil
}

// parseHunkHeader parses "@@ -a[,b] +c[,d] @@"; missing length fields default
// to 1. Start lines must be non-negative integers.
func parseHunkHeader(header string) (models.DiffHunk, error) {
	var hunk models.DiffHunk

	oldStart, oldCount, err := parseHunkSegment(header, '-')
	if err != nil {
		return hunk, fmt.Errorf("bad hunk header %q: %w", header, err)
	}
	newStart, newCount, err := parseHunkSegment(header, '+')
	if err != nil {
		return hunk, fmt.Errorf("bad hunk header %q: %w", header, err)
	}
	if newStart < 0 || oldStart < 0 {
		return hunk, fmt.Errorf("bad hunk header %q: negative start line", header)
	}

	hunk.OldStartLine = oldStart
	hunk.OldLineCount = oldCount
	hunk.NewStartLine = newStart
	hunk.NewLineCount = newCount
	return hunk, nil
}

func parseHunkSegment(header string, marker byte) (start, count int, err error) {
	idx := strings.IndexByte(header, marker)
	if idx == -1 {
		return 0, 0, fmt.Errorf("missing %q segment", string(marker))
	}
	segment := header[idx+1:]
	if ws := strings.IndexByte(segment, ' '); ws >= 0 {
		segment = segment[:ws]
	}

	parts := strings.SplitN(segment, ",", 2)
	start, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("non-numeric start %q", parts[0])
	}
	count = 1
	if len(parts) > 1 {
		count, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, fmt.Errorf("non-numeric count %q", parts[1])
		}
	}
	return start, count, nil
}

// newFilePath extracts the path from a "+++ b/<path>" header line. Returns ""
// for /dev/null and for headers in unexpected shapes.
func newFilePath(line string) string {
	path := strings.TrimPrefix(line, "+++ ")
	if tab := strings.IndexByte(path, '\t'); tab >= 0 {
		path = path[:tab]
	}
	path = strings.TrimSpace(path)
	if path == "/dev/null" {
		return ""
	}
	path = strings.TrimPrefix(path, "b/")
	return path
}
