package langchain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffpilot/internal/ai"
	"github.com/tmc/langchaingo/llms"
)

func TestRepairToolArgumentsValidPassThrough(t *testing.T) {
	raw := `{"path":"main.go","query":"TODO"}`
	assert.Equal(t, raw, repairToolArguments(raw))
}

func TestRepairToolArgumentsFixesTrailingComma(t *testing.T) {
	repaired := repairToolArguments(`{"path":"main.go",}`)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(repaired), &m))
	assert.Equal(t, "main.go", m["path"])
}

func TestRepairToolArgumentsEmpty(t *testing.T) {
	assert.Equal(t, "{}", repairToolArguments(""))
}

func TestToMessageContentRoles(t *testing.T) {
	sys := toMessageContent(ai.Message{Role: ai.RoleSystem, Text: "you are a reviewer"})
	assert.Equal(t, llms.ChatMessageTypeSystem, sys.Role)

	user := toMessageContent(ai.Message{Role: ai.RoleUser, Text: "review this"})
	assert.Equal(t, llms.ChatMessageTypeHuman, user.Role)

	asst := toMessageContent(ai.Message{
		Role:      ai.RoleAssistant,
		ToolCalls: []ai.ToolCall{{ID: "c1", Name: "run_shell", Arguments: `{"cmd":"ls"}`}},
	})
	assert.Equal(t, llms.ChatMessageTypeAI, asst.Role)
	require.Len(t, asst.Parts, 1)
	call, ok := asst.Parts[0].(llms.ToolCall)
	require.True(t, ok)
	assert.Equal(t, "run_shell", call.FunctionCall.Name)

	tool := toMessageContent(ai.Message{
		Role:       ai.RoleTool,
		ToolResult: &ai.ToolResult{CallID: "c1", Name: "run_shell", Content: "main.go"},
	})
	assert.Equal(t, llms.ChatMessageTypeTool, tool.Role)
	require.Len(t, tool.Parts, 1)
	resp, ok := tool.Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "c1", resp.ToolCallID)
}
