package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	shellTimeout   = 60 * time.Second
	maxShellOutput = 32 * 1024
)

// ShellTool runs read-only shell commands inside a checked-out workspace so
// the model can grep, list files, and inspect history beyond the diff.
type ShellTool struct {
	workDir string
}

func NewShellTool(workDir string) *ShellTool {
	return &ShellTool{workDir: workDir}
}

func (t *ShellTool) Name() string { return "run_shell" }

func (t *ShellTool) Description() string {
	return "Run a shell command in the repository checkout. Use for grep, ls, git log and similar read-only inspection. Output is truncated at 32KB."
}

func (t *ShellTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to run.",
			},
		},
		"required": []string{"command"},
	}
}

func (t *ShellTool) Execute(ctx context.Context, args string) (string, error) {
	var req struct {
		Command string `json:"command"`
	}
	if err := decodeArgs(args, &req); err != nil {
		return err.Error(), nil
	}
	if strings.TrimSpace(req.Command) == "" {
		return "error: command is empty", nil
	}

	ctx, cancel := context.WithTimeout(ctx, shellTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", req.Command)
	cmd.Dir = t.workDir
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.Canceled {
		return "", ctx.Err()
	}

	text := truncate(string(out), maxShellOutput)
	if err != nil {
		return fmt.Sprintf("%s\n(exit error: %v)", text, err), nil
	}
	if text == "" {
		return "(no output)", nil
	}
	return text, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... (output truncated)"
}
