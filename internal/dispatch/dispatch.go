// Package dispatch maps JSON-RPC method names onto registry operations,
// producing either a result or a JSON-RPC error envelope, and tracks the
// one piece of mutable per-run state the core has: whether shutdown has
// been requested.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/MarcoPolo483/eva-mcp/internal/jsonrpc"
	"github.com/MarcoPolo483/eva-mcp/internal/registry"
)

const protocolVersion = "2024-11-01"

// Method name constants, matching the wire strings exactly.
const (
	MethodInitialize    = "initialize"
	MethodShutdown      = "shutdown"
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
	MethodResourcesList = "resources/list"
	MethodResourcesRead = "resources/read"
	MethodPromptsList   = "prompts/list"
	MethodPromptsGet    = "prompts/get"
)

// ServerInfo identifies this server in the initialize response.
type ServerInfo struct {
	Name    string
	Version string
}

// Dispatcher couples the method table to the three registries and the
// shutdown flag. It holds no transport or I/O state.
type Dispatcher struct {
	info    ServerInfo
	tools   *registry.Tools
	res     *registry.Resources
	prompts *registry.Prompts
	clock   registry.HandlerContext
	logger  zerolog.Logger

	shuttingDown bool
}

// New builds a Dispatcher over the given registries.
func New(info ServerInfo, tools *registry.Tools, res *registry.Resources, prompts *registry.Prompts, hc registry.HandlerContext, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{info: info, tools: tools, res: res, prompts: prompts, clock: hc, logger: logger}
}

// ShuttingDown reports whether a shutdown request has already been
// processed. The server loop checks this after writing a response and
// exits if true.
func (d *Dispatcher) ShuttingDown() bool {
	return d.shuttingDown
}

// Dispatch handles one decoded request and returns the response to
// write, if any. Notifications (requests with no identifier) never
// produce a response — except the synthetic parse-error request, which
// carries no identifier and is always answered with a null identifier,
// since it represents a malformed request the client is waiting on.
func (d *Dispatcher) Dispatch(ctx context.Context, req jsonrpc.Request) (jsonrpc.Response, bool) {
	if req.Method == jsonrpc.InternalParseErrorMethod {
		return d.parseErrorResponse(req), true
	}

	if req.IsNotification() {
		d.handleNotification(req)
		return jsonrpc.Response{}, false
	}

	switch req.Method {
	case MethodInitialize:
		result, err := d.handleInitialize()
		return d.respond(req.Method, req.ID, result, err)
	case MethodShutdown:
		d.shuttingDown = true
		return d.respondNull(req.ID)
	case MethodToolsList:
		result, err := d.handleToolsList()
		return d.respond(req.Method, req.ID, result, err)
	case MethodToolsCall:
		result, err := d.handleToolsCall(ctx, req.Params)
		return d.respond(req.Method, req.ID, result, err)
	case MethodResourcesList:
		result, err := d.handleResourcesList()
		return d.respond(req.Method, req.ID, result, err)
	case MethodResourcesRead:
		result, err := d.handleResourcesRead(ctx, req.Params)
		return d.respond(req.Method, req.ID, result, err)
	case MethodPromptsList:
		result, err := d.handlePromptsList()
		return d.respond(req.Method, req.ID, result, err)
	case MethodPromptsGet:
		result, err := d.handlePromptsGet(req.Params)
		return d.respond(req.Method, req.ID, result, err)
	default:
		return jsonrpc.NewError(req.ID, jsonrpc.CodeMethodNotFound, "Method not found",
			map[string]string{"method": req.Method}), true
	}
}

// handleNotification processes a request with no identifier. Only
// shutdown mutates shared state among the core's dispatched methods, and
// a notification carrying "shutdown" as its method would be unusual, but
// the dispatcher still honors it for robustness — never answering it.
func (d *Dispatcher) handleNotification(req jsonrpc.Request) {
	if req.Method == MethodShutdown {
		d.shuttingDown = true
	}
}

func (d *Dispatcher) parseErrorResponse(req jsonrpc.Request) jsonrpc.Response {
	var data any = req.Params
	var decoded map[string]any
	if err := json.Unmarshal(req.Params, &decoded); err == nil {
		data = decoded
	}
	return jsonrpc.NewError(jsonrpc.NullID, jsonrpc.CodeParseError, "Parse error", data)
}

func (d *Dispatcher) respond(method string, id json.RawMessage, result any, err error) (jsonrpc.Response, bool) {
	if err != nil {
		d.logger.Error().Str("method", method).Str("id", string(id)).Err(err).Msg("handler error")
		return jsonrpc.NewError(id, jsonrpc.CodeServerError, err.Error(), nil), true
	}
	resp, marshalErr := jsonrpc.NewResult(id, result)
	if marshalErr != nil {
		d.logger.Error().Str("method", method).Str("id", string(id)).Err(marshalErr).Msg("failed to marshal result")
		return jsonrpc.NewError(id, jsonrpc.CodeServerError, marshalErr.Error(), nil), true
	}
	return resp, true
}

func (d *Dispatcher) respondNull(id json.RawMessage) (jsonrpc.Response, bool) {
	resp, _ := jsonrpc.NewResult(id, nil)
	return resp, true
}

type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      serverInfoJSON     `json:"serverInfo"`
	Capabilities    capabilitiesResult `json:"capabilities"`
}

type serverInfoJSON struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type capabilitiesResult struct {
	Tools     toolsCapability     `json:"tools"`
	Resources resourcesCapability `json:"resources"`
	Prompts   promptsCapability   `json:"prompts"`
}

type toolsCapability struct {
	List bool `json:"list"`
	Call bool `json:"call"`
}

type resourcesCapability struct {
	List             bool     `json:"list"`
	Read             bool     `json:"read"`
	SupportedSchemes []string `json:"supportedSchemes"`
}

type promptsCapability struct {
	List bool `json:"list"`
	Get  bool `json:"get"`
}

func (d *Dispatcher) handleInitialize() (any, error) {
	return initializeResult{
		ProtocolVersion: protocolVersion,
		ServerInfo:      serverInfoJSON{Name: d.info.Name, Version: d.info.Version},
		Capabilities: capabilitiesResult{
			Tools:     toolsCapability{List: true, Call: true},
			Resources: resourcesCapability{List: true, Read: true, SupportedSchemes: []string{"file"}},
			Prompts:   promptsCapability{List: true, Get: true},
		},
	}, nil
}

func (d *Dispatcher) handleToolsList() (any, error) {
	return struct {
		Tools []registry.ToolDefinition `json:"tools"`
	}{Tools: d.tools.List()}, nil
}

type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, rawParams json.RawMessage) (any, error) {
	var params toolsCallParams
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	result, err := d.tools.Call(ctx, d.clock, params.Name, params.Arguments)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Dispatcher) handleResourcesList() (any, error) {
	return struct {
		Resources []registry.ResourceDefinition `json:"resources"`
	}{Resources: d.res.List()}, nil
}

type resourcesReadParams struct {
	URI string `json:"uri"`
}

func (d *Dispatcher) handleResourcesRead(ctx context.Context, rawParams json.RawMessage) (any, error) {
	var params resourcesReadParams
	if len(rawParams) > 0 {
		if err := json.Unmarshal(rawParams, &params); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
	}
	if params.URI == "" {
		return nil, errors.New("uri required")
	}

	content, err := d.res.Read(ctx, params.URI)
	if err != nil {
		return nil, err
	}
	return content, nil
}

func (d *Dispatcher) handlePromptsList() (any, error) {
	return struct {
		Prompts []registry.PromptDefinition `json:"prompts"`
	}{Prompts: d.prompts.List()}, nil
}

type promptsGetParams struct {
	Name      string         `json:"name"`
	Variables map[string]any `json:"variables,omitempty"`
}

type promptsGetResult struct {
	Prompt promptResult `json:"prompt"`
}

type promptResult struct {
	Name     string          `json:"name"`
	Messages []promptMessage `json:"messages"`
}

type promptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (d *Dispatcher) handlePromptsGet(rawParams json.RawMessage) (any, error) {
	var params promptsGetParams
	if len(rawParams) > 0 {
		if err := json.Unmarshal(rawParams, &params); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
	}
	if params.Name == "" {
		return nil, errors.New("name required")
	}

	content, err := d.prompts.Get(params.Name, params.Variables)
	if err != nil {
		return nil, err
	}

	return promptsGetResult{
		Prompt: promptResult{
			Name: content.Name,
			Messages: []promptMessage{
				{Role: "system", Content: content.Content},
			},
		},
	}, nil
}
