// ABOUTME: Tool executor contract and the Collection registry
// ABOUTME: Tool failures are data, folded back into the conversation, never fatal

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/2389/coven-desk/internal/provider"
)

// Result is what a tool invocation reports back. It is transient: the
// orchestration loop translates it into a tool_result content block
// before anything is persisted.
type Result struct {
	Output      string // tool output text
	Error       string // failure text; non-empty marks the result as an error
	Base64Image string // optional base64-encoded PNG payload
	System      string // optional system annotation prepended at translation time
}

// Tool is one named capability the agent can invoke.
type Tool interface {
	Spec() provider.ToolSpec
	Run(ctx context.Context, input json.RawMessage) (*Result, error)
}

// Executor is what the orchestration loop consumes: declared capabilities
// plus synchronous execution by name.
type Executor interface {
	Specs() []provider.ToolSpec
	Run(ctx context.Context, name string, input json.RawMessage) *Result
}

// Collection is a registry of tools keyed by name, preserving
// registration order for capability declarations.
type Collection struct {
	tools  map[string]Tool
	order  []string
	logger *slog.Logger
}

// NewCollection creates a collection from the given tools. Pass nil
// logger for default.
func NewCollection(logger *slog.Logger, tools ...Tool) *Collection {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Collection{
		tools:  make(map[string]Tool, len(tools)),
		logger: logger.With("component", "tools"),
	}
	for _, tool := range tools {
		name := tool.Spec().Name
		if _, exists := c.tools[name]; exists {
			continue
		}
		c.tools[name] = tool
		c.order = append(c.order, name)
	}
	return c
}

// Specs returns the capability declarations in registration order.
func (c *Collection) Specs() []provider.ToolSpec {
	specs := make([]provider.ToolSpec, 0, len(c.order))
	for _, name := range c.order {
		specs = append(specs, c.tools[name].Spec())
	}
	return specs
}

// Run executes the named tool. Every failure mode, including an unknown
// name, comes back inside the Result so the loop can feed it to the
// provider as data.
func (c *Collection) Run(ctx context.Context, name string, input json.RawMessage) *Result {
	tool, ok := c.tools[name]
	if !ok {
		return &Result{Error: fmt.Sprintf("unknown tool %q", name)}
	}

	result, err := tool.Run(ctx, input)
	if err != nil {
		c.logger.Warn("tool execution failed", "tool", name, "error", err)
		return &Result{Error: err.Error()}
	}
	if result == nil {
		result = &Result{}
	}
	return result
}
