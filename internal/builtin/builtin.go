// Package builtin registers the demonstration tools, prompts, and the
// file resource provider that make the protocol surface non-empty at
// startup. None of it is part of the runtime kernel; every handler here
// is an external collaborator reachable only through the registries in
// internal/registry.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/MarcoPolo483/eva-mcp/internal/registry"
	"github.com/MarcoPolo483/eva-mcp/internal/sandbox"
)

const (
	fileResourceURI = "file:///"
	mimeTypeText    = "text/plain"
)

// RegisterTools adds ping, echo, time, search_files, and edit_file to tools.
func RegisterTools(tools *registry.Tools, sb sandbox.Sandbox, maxList int) {
	tools.Register(registry.ToolDefinition{
		Name:        "ping",
		Description: "Returns the given message, or \"pong\" if none was given.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"message":{"type":"string"}}}`),
	}, pingHandler)

	tools.Register(registry.ToolDefinition{
		Name:        "echo",
		Description: "Returns the given text unchanged.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`),
	}, echoHandler)

	tools.Register(registry.ToolDefinition{
		Name:        "time",
		Description: "Returns the current instant as an ISO-8601 string.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
	}, timeHandler)

	tools.Register(registry.ToolDefinition{
		Name:        "search_files",
		Description: "Lists workspace-relative paths whose forward-slash form matches a glob pattern.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"pattern":{"type":"string"}},"required":["pattern"]}`),
	}, searchFilesHandler(sb, maxList))

	tools.Register(registry.ToolDefinition{
		Name:        "edit_file",
		Description: "Replaces a single exact-text occurrence in a workspace file and returns a unified diff.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"},"oldText":{"type":"string"},"newText":{"type":"string"},"dryRun":{"type":"boolean"}},"required":["path","oldText","newText"]}`),
	}, editFileHandler(sb))
}

// RegisterPrompts adds summarize and system-instructions to prompts.
func RegisterPrompts(prompts *registry.Prompts) {
	prompts.Register(registry.PromptDefinition{
		Name:        "summarize",
		Description: "Summarize a block of text.",
		Variables: []registry.PromptVariable{
			{Name: "text", Required: true},
		},
	}, "Summarize the following text:\n\n{{text}}\n\nReturn a concise summary.")

	prompts.Register(registry.PromptDefinition{
		Name:        "system-instructions",
		Description: "A system prompt carrying an optional persona.",
		Variables: []registry.PromptVariable{
			{Name: "persona", Required: false},
		},
	}, "You are a helpful assistant. Persona: {{persona}}")
}

// RegisterResources adds the file:/// provider, backed by sb, to res.
func RegisterResources(res *registry.Resources, sb sandbox.Sandbox, maxList int) {
	res.Register(registry.ResourceDefinition{
		URI:         fileResourceURI,
		Name:        "workspace files",
		Description: "The sandboxed workspace root and every file beneath it.",
	}, fileResourceReader(sb, maxList))
}

func pingHandler(_ context.Context, _ registry.HandlerContext, args json.RawMessage) (registry.ToolResult, error) {
	var params struct {
		Message string `json:"message"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return registry.ToolResult{}, fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if params.Message == "" {
		return registry.TextResult("pong"), nil
	}
	return registry.TextResult(params.Message), nil
}

func echoHandler(_ context.Context, _ registry.HandlerContext, args json.RawMessage) (registry.ToolResult, error) {
	var params struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return registry.ToolResult{}, fmt.Errorf("invalid arguments: %w", err)
	}
	return registry.TextResult(params.Text), nil
}

func timeHandler(_ context.Context, hc registry.HandlerContext, _ json.RawMessage) (registry.ToolResult, error) {
	now := time.Now
	if hc.Now != nil {
		now = hc.Now
	}
	return registry.TextResult(now().Format(time.RFC3339)), nil
}

func searchFilesHandler(sb sandbox.Sandbox, maxList int) registry.ToolHandler {
	return func(_ context.Context, _ registry.HandlerContext, args json.RawMessage) (registry.ToolResult, error) {
		var params struct {
			Pattern string `json:"pattern"`
		}
		if err := json.Unmarshal(args, &params); err != nil {
			return registry.ToolResult{}, fmt.Errorf("invalid arguments: %w", err)
		}
		if params.Pattern == "" {
			return registry.ErrorResult("pattern is required"), nil
		}

		matches, err := sb.ListMatching(maxList, params.Pattern)
		if err != nil {
			return registry.ErrorResult("invalid pattern: %s", err), nil
		}
		if len(matches) == 0 {
			return registry.TextResult(""), nil
		}

		sort.Strings(matches)
		return registry.TextResult(strings.Join(matches, "\n")), nil
	}
}

func editFileHandler(sb sandbox.Sandbox) registry.ToolHandler {
	return func(_ context.Context, _ registry.HandlerContext, args json.RawMessage) (registry.ToolResult, error) {
		var params struct {
			Path    string `json:"path"`
			OldText string `json:"oldText"`
			NewText string `json:"newText"`
			DryRun  bool   `json:"dryRun"`
		}
		if err := json.Unmarshal(args, &params); err != nil {
			return registry.ToolResult{}, fmt.Errorf("invalid arguments: %w", err)
		}

		current, err := sb.Read(params.Path)
		if err != nil {
			return registry.ErrorResult("%s", err), nil
		}

		if !strings.Contains(current.Content, params.OldText) {
			return registry.ErrorResult("old text not found in %s; file not modified", params.Path), nil
		}
		updated := strings.Replace(current.Content, params.OldText, params.NewText, 1)

		diff := unifiedDiff(params.Path, current.Content, updated)

		if !params.DryRun {
			if err := sb.Write(params.Path, updated); err != nil {
				return registry.ToolResult{}, fmt.Errorf("failed to write %s: %w", params.Path, err)
			}
		}

		return registry.TextResult(diff), nil
	}
}

func unifiedDiff(path, original, updated string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, updated, true)
	patches := dmp.PatchMake(diffs)

	var out strings.Builder
	fmt.Fprintf(&out, "--- %s (original)\n", path)
	fmt.Fprintf(&out, "+++ %s (modified)\n", path)
	for _, patch := range patches {
		out.WriteString(dmp.PatchToText([]diffmatchpatch.Patch{patch}))
	}
	return out.String()
}

func fileResourceReader(sb sandbox.Sandbox, maxList int) registry.ResourceReader {
	return func(_ context.Context, uri string) (registry.ResourceContent, error) {
		relative := strings.TrimPrefix(uri, fileResourceURI)
		if relative == "" {
			paths, err := sb.List(maxList)
			if err != nil {
				return registry.ResourceContent{}, fmt.Errorf("failed to list workspace: %w", err)
			}
			return registry.ResourceContent{
				URI:      uri,
				MimeType: mimeTypeText,
				Text:     strings.Join(paths, "\n"),
			}, nil
		}

		content, err := sb.Read(relative)
		if err != nil {
			return registry.ResourceContent{}, fmt.Errorf("failed to read %s: %w", uri, err)
		}
		return registry.ResourceContent{
			URI:      uri,
			MimeType: mimeTypeText,
			Text:     content.Content,
		}, nil
	}
}
