// Package diffstat computes aggregate statistics for a unified diff. The
// numbers go into prompts and the posted summary so the model and the humans
// reading it see the same picture of the change's size.
package diffstat

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// Stats summarizes a diff at the file level.
type Stats struct {
	Files        int
	Added        int
	Deleted      int
	NewFiles     int
	DeletedFiles int
	RenamedFiles int
	BinaryFiles  int
	FilePaths    []string
}

// Compute parses the diff and tallies per-file line counts. Unparseable input
// returns an error; the caller falls back to reviewing without stats.
func Compute(diffText string) (*Stats, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(diffText))
	if err != nil {
		return nil, fmt.Errorf("parsing diff for stats: %w", err)
	}

	stats := &Stats{Files: len(files)}
	for _, f := range files {
		name := f.NewName
		if name == "" {
			name = f.OldName
		}
		stats.FilePaths = append(stats.FilePaths, name)

		if f.IsNew {
			stats.NewFiles++
		}
		if f.IsDelete {
			stats.DeletedFiles++
		}
		if f.IsRename {
			stats.RenamedFiles++
		}
		if f.IsBinary {
			stats.BinaryFiles++
		}

		for _, frag := range f.TextFragments {
			for _, line := range frag.Lines {
				switch line.Op {
				case gitdiff.OpAdd:
					stats.Added++
				case gitdiff.OpDelete:
					stats.Deleted++
				}
			}
		}
	}

	return stats, nil
}

// Summary renders the stats as a one-line description for prompts.
func (s *Stats) Summary() string {
	return fmt.Sprintf("%d file(s) changed, %d insertion(s), %d deletion(s)",
		s.Files, s.Added, s.Deleted)
}
