package tools

import (
	"context"
	"fmt"

	"github.com/diffpilot/internal/providers"
)

const maxFetchOutput = 64 * 1024

// FetchFileTool retrieves full file contents from the PR's head revision so
// the model can see context beyond the diff hunks.
type FetchFileTool struct {
	provider providers.Provider
	ref      providers.PRRef
}

func NewFetchFileTool(provider providers.Provider, ref providers.PRRef) *FetchFileTool {
	return &FetchFileTool{provider: provider, ref: ref}
}

func (t *FetchFileTool) Name() string { return "fetch_file" }

func (t *FetchFileTool) Description() string {
	return "Fetch the full content of a file at the pull request's head revision. Use when the diff hunks do not give enough context."
}

func (t *FetchFileTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Repository-relative file path.",
			},
		},
		"required": []string{"path"},
	}
}

func (t *FetchFileTool) Execute(ctx context.Context, args string) (string, error) {
	var req struct {
		Path string `json:"path"`
	}
	if err := decodeArgs(args, &req); err != nil {
		return err.Error(), nil
	}
	if req.Path == "" {
		return "error: path is required", nil
	}

	content, err := t.provider.GetFileContent(ctx, t.ref, req.Path)
	if err != nil {
		return fmt.Sprintf("error fetching %s: %v", req.Path, err), nil
	}
	return truncate(content, maxFetchOutput), nil
}
