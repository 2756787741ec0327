package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const depGraphTimeout = 30 * time.Second

// DepGraphTool surfaces the Go module dependency graph of the checkout, so
// the model can judge the blast radius of a dependency change.
type DepGraphTool struct {
	workDir string
}

func NewDepGraphTool(workDir string) *DepGraphTool {
	return &DepGraphTool{workDir: workDir}
}

func (t *DepGraphTool) Name() string { return "dependency_graph" }

func (t *DepGraphTool) Description() string {
	return "Show the Go module dependency graph of the repository, optionally filtered to edges mentioning a module path substring."
}

func (t *DepGraphTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"filter": map[string]any{
				"type":        "string",
				"description": "Only return edges whose text contains this substring.",
			},
		},
	}
}

func (t *DepGraphTool) Execute(ctx context.Context, args string) (string, error) {
	var req struct {
		Filter string `json:"filter"`
	}
	if err := decodeArgs(args, &req); err != nil {
		return err.Error(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, depGraphTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "mod", "graph")
	cmd.Dir = t.workDir
	out, err := cmd.Output()
	if err != nil {
		return fmt.Sprintf("error running go mod graph: %v", err), nil
	}

	text := string(out)
	if req.Filter != "" {
		var kept []string
		for _, line := range strings.Split(text, "\n") {
			if strings.Contains(line, req.Filter) {
				kept = append(kept, line)
			}
		}
		if len(kept) == 0 {
			return fmt.Sprintf("no dependency edges match %q", req.Filter), nil
		}
		text = strings.Join(kept, "\n")
	}
	return truncate(text, maxShellOutput), nil
}
