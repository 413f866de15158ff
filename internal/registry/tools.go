// Package registry holds the three in-memory indexes the dispatcher
// consults: tools, resources, and prompts. Each is populated once at
// construction time by explicit registration calls — no directory
// scanning, no reflection — and is read-only thereafter except for the
// same-key-overwrite allowance spelled out by the data model.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Content is a single typed content part of a tool result. Only the
// "text" type is specified.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// TextContent builds a text Content part.
func TextContent(text string) Content {
	return Content{Type: "text", Text: text}
}

// ToolResult is what a tool handler returns. IsError distinguishes a
// tool-level failure (still a successful JSON-RPC response) from success.
type ToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// ErrorResult builds a ToolResult carrying a single text part and
// IsError set, the shape every tool-level failure uses.
func ErrorResult(format string, args ...any) ToolResult {
	return ToolResult{
		Content: []Content{TextContent(fmt.Sprintf(format, args...))},
		IsError: true,
	}
}

// TextResult builds a successful ToolResult carrying a single text part.
func TextResult(text string) ToolResult {
	return ToolResult{Content: []Content{TextContent(text)}}
}

// HandlerContext is the collaborator surface available to a tool
// handler. Only a clock is specified; handlers that need more either
// close over it at registration time or aren't part of this module.
type HandlerContext struct {
	Now func() time.Time
}

// ToolDefinition describes a tool's shape for tools/list, forwarded to
// the client verbatim.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ToolHandler executes a tool call. It is never expected to return a Go
// error for an ordinary, recoverable failure — those are reported via
// ToolResult.IsError — but may return one for a genuine fault (e.g. a
// filesystem I/O error), which the dispatcher converts to a JSON-RPC
// server error.
type ToolHandler func(ctx context.Context, hc HandlerContext, args json.RawMessage) (ToolResult, error)

type toolEntry struct {
	def     ToolDefinition
	handler ToolHandler
}

// Tools is the tool registry.
type Tools struct {
	entries map[string]toolEntry
	order   []string
}

// NewTools returns an empty tool registry.
func NewTools() *Tools {
	return &Tools{entries: make(map[string]toolEntry)}
}

// Register adds or replaces the tool identified by def.Name.
func (t *Tools) Register(def ToolDefinition, handler ToolHandler) {
	if _, exists := t.entries[def.Name]; !exists {
		t.order = append(t.order, def.Name)
	}
	t.entries[def.Name] = toolEntry{def: def, handler: handler}
}

// List returns a snapshot of every registered tool definition, in
// registration order.
func (t *Tools) List() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(t.order))
	for _, name := range t.order {
		defs = append(defs, t.entries[name].def)
	}
	return defs
}

// Call invokes the named tool. A missing tool is not a dispatch error:
// it returns a successful ToolResult with IsError set and a text part
// beginning "Tool not found: <name>".
func (t *Tools) Call(ctx context.Context, hc HandlerContext, name string, args json.RawMessage) (ToolResult, error) {
	entry, ok := t.entries[name]
	if !ok {
		return ErrorResult("Tool not found: %s", name), nil
	}
	return entry.handler(ctx, hc, args)
}
