// Package tools holds the tools the review agent may call between turns.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/diffpilot/internal/ai"
)

// Tool is one capability exposed to the model.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema for the tool's argument object.
	Parameters() map[string]any
	// Execute runs the tool with the given raw JSON arguments and returns
	// the text fed back to the model. Execution errors are returned as text
	// too, so the model can recover; only context cancellation is an error.
	Execute(ctx context.Context, args string) (string, error)
}

// Registry maps tool names to tools and keeps registration order for the
// specs sent to the model.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Specs returns the tool declarations in registration order.
func (r *Registry) Specs() []ai.ToolSpec {
	specs := make([]ai.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		specs = append(specs, ai.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return specs
}

// Dispatch executes the named tool. Unknown tools produce an error message
// for the model rather than failing the review turn.
func (r *Registry) Dispatch(ctx context.Context, call ai.ToolCall) (string, error) {
	t, ok := r.Get(call.Name)
	if !ok {
		return fmt.Sprintf("error: unknown tool %q", call.Name), nil
	}
	return t.Execute(ctx, call.Arguments)
}

// decodeArgs unmarshals a tool argument payload into dst, tolerating an
// empty argument string.
func decodeArgs(raw string, dst any) error {
	if raw == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}
