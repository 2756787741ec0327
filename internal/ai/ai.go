// Package ai abstracts the LLM backend behind a turn-oriented client so the
// review loop does not depend on any one SDK.
package ai

import (
	"context"
	"fmt"
)

// Role identifies who produced a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a review conversation.
type Message struct {
	Role Role
	Text string

	// ToolCalls is set on assistant messages that requested tool use.
	ToolCalls []ToolCall

	// ToolResult is set on tool messages carrying an execution result.
	ToolResult *ToolResult
}

// ToolCall is a tool invocation requested by the model. Arguments is the raw
// JSON argument object, already repaired if the model emitted broken JSON.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolResult carries the outcome of executing a ToolCall back to the model.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
}

// ToolSpec describes a tool the model may call. Parameters is a JSON Schema
// object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// TurnResult is what the model produced for one turn.
type TurnResult struct {
	Text      string
	ToolCalls []ToolCall
}

// Client generates one conversation turn at a time.
type Client interface {
	// GenerateTurn sends the conversation so far and returns the model's
	// next turn. tools may be empty to force a text-only response.
	GenerateTurn(ctx context.Context, messages []Message, tools []ToolSpec) (*TurnResult, error)

	// Name returns the backend's name.
	Name() string
}

// Options configures a client at construction time.
type Options struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Factory creates clients by backend name.
type Factory struct {
	builders map[string]func(ctx context.Context, opts Options) (Client, error)
}

func NewFactory() *Factory {
	return &Factory{builders: make(map[string]func(ctx context.Context, opts Options) (Client, error))}
}

// Register adds a backend constructor under the given name.
func (f *Factory) Register(name string, build func(ctx context.Context, opts Options) (Client, error)) {
	f.builders[name] = build
}

// Create builds a client for the named backend.
func (f *Factory) Create(ctx context.Context, name string, opts Options) (Client, error) {
	build, ok := f.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown ai backend %q", name)
	}
	return build(ctx, opts)
}
