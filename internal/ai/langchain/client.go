// Package langchain implements the ai.Client interface on top of langchaingo,
// currently backed by Google AI (Gemini) models.
package langchain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/diffpilot/internal/ai"
)

const defaultModel = "gemini-2.0-flash"

// Client drives a Gemini model through langchaingo.
type Client struct {
	llm       llms.Model
	modelName string
	options   ai.Options
}

// New initializes the Gemini backend.
func New(ctx context.Context, opts ai.Options) (ai.Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	modelName := opts.Model
	if modelName == "" {
		modelName = defaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(opts.APIKey),
		googleai.WithDefaultModel(modelName),
		googleai.WithDefaultMaxTokens(maxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm: %w", err)
	}

	return &Client{llm: llm, modelName: modelName, options: opts}, nil
}

func (c *Client) Name() string { return "langchain/" + c.modelName }

func (c *Client) GenerateTurn(ctx context.Context, messages []ai.Message, tools []ai.ToolSpec) (*ai.TurnResult, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, toMessageContent(m))
	}

	callOpts := []llms.CallOption{
		llms.WithTemperature(c.options.Temperature),
	}
	if len(tools) > 0 {
		callOpts = append(callOpts, llms.WithTools(toLLMTools(tools)))
	}

	resp, err := c.llm.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return nil, fmt.Errorf("llm call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}

	choice := resp.Choices[0]
	result := &ai.TurnResult{Text: choice.Content}
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		result.ToolCalls = append(result.ToolCalls, ai.ToolCall{
			ID:        tc.ID,
			Name:      tc.FunctionCall.Name,
			Arguments: repairToolArguments(tc.FunctionCall.Arguments),
		})
	}
	return result, nil
}

func toMessageContent(m ai.Message) llms.MessageContent {
	switch m.Role {
	case ai.RoleSystem:
		return llms.TextParts(llms.ChatMessageTypeSystem, m.Text)
	case ai.RoleAssistant:
		mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if m.Text != "" {
			mc.Parts = append(mc.Parts, llms.TextPart(m.Text))
		}
		for _, tc := range m.ToolCalls {
			mc.Parts = append(mc.Parts, llms.ToolCall{
				ID:   tc.ID,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		return mc
	case ai.RoleTool:
		mc := llms.MessageContent{Role: llms.ChatMessageTypeTool}
		if m.ToolResult != nil {
			mc.Parts = append(mc.Parts, llms.ToolCallResponse{
				ToolCallID: m.ToolResult.CallID,
				Name:       m.ToolResult.Name,
				Content:    m.ToolResult.Content,
			})
		}
		return mc
	default:
		return llms.TextParts(llms.ChatMessageTypeHuman, m.Text)
	}
}

func toLLMTools(specs []ai.ToolSpec) []llms.Tool {
	tools := make([]llms.Tool, 0, len(specs))
	for _, s := range specs {
		tools = append(tools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		})
	}
	return tools
}

// repairToolArguments makes a best effort to return valid JSON for a tool
// call. Gemini occasionally emits trailing commas or unquoted keys; the
// jsonrepair pass recovers most of those. If repair also fails the raw
// arguments are returned and the tool decides what to do with them.
func repairToolArguments(raw string) string {
	if raw == "" {
		return "{}"
	}
	var probe any
	if json.Unmarshal([]byte(raw), &probe) == nil {
		return raw
	}
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return raw
	}
	return repaired
}
