// Package protocol exposes the tool manager over a JSON-RPC style
// tools/list + tools/call method surface.
package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"dynafunc/internal/metrics"
	"dynafunc/internal/tool"
)

// ErrInvalidEnvelope reports a tools/call request whose params are missing
// or mistyped. It is raised to the caller, never converted into a result.
var ErrInvalidEnvelope = errors.New("invalid request envelope")

// Adapter translates tools/list and tools/call requests into manager
// operations. It is stateless per call beyond the initialized flag.
type Adapter struct {
	manager     *tool.Manager
	dirs        []string
	discoverer  tool.Discoverer
	logger      *slog.Logger
	initialized bool
}

// NewAdapter creates an Adapter over manager. Discovery scans dirs in order
// at Initialize time; tools sharing a name across directories resolve
// last-registration-wins.
func NewAdapter(manager *tool.Manager, dirs []string, discoverer tool.Discoverer, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	if discoverer == nil {
		discoverer = tool.LoadFromDirectory
	}
	return &Adapter{
		manager:    manager,
		dirs:       dirs,
		discoverer: discoverer,
		logger:     logger.With("component", "protocol"),
	}
}

// Initialize runs tool discovery over the configured directories. Unreadable
// directories are skipped; Initialize never fails startup.
func (a *Adapter) Initialize(ctx context.Context) {
	for _, dir := range a.dirs {
		a.manager.Discover(dir, a.discoverer)
	}
	a.initialized = true
	a.logger.Info("protocol adapter ready", "dirs", len(a.dirs), "tools", len(a.manager.Definitions()))
}

// Initialized reports whether Initialize has run.
func (a *Adapter) Initialized() bool { return a.initialized }

// CanHandle reports whether method belongs to this adapter.
func (a *Adapter) CanHandle(method string) bool {
	return method == "tools/list" || method == "tools/call"
}

// Handle dispatches a request. The returned error reports envelope problems
// (unknown method, malformed params) and is raised to the caller. Tool
// execution failures never surface as errors; they come back as an RPCError
// result so the protocol edge stays exception-free.
func (a *Adapter) Handle(ctx context.Context, method string, params json.RawMessage) (any, *RPCError, error) {
	metrics.ProtocolRequests.Inc()
	switch method {
	case "tools/list":
		result, err := a.toolsList(params)
		return result, nil, err
	case "tools/call":
		return a.toolsCall(ctx, params)
	default:
		return nil, nil, fmt.Errorf("%w: unsupported method %q", ErrInvalidEnvelope, method)
	}
}

// toolsList returns every invocable tool. The pagination cursor is accepted
// and ignored; the full set always comes back with a null nextCursor.
func (a *Adapter) toolsList(params json.RawMessage) (*ToolsListResult, error) {
	if len(params) > 0 {
		var p ToolsListParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
		}
	}
	return &ToolsListResult{Tools: a.manager.Definitions(), NextCursor: nil}, nil
}

func (a *Adapter) toolsCall(ctx context.Context, params json.RawMessage) (result *ToolsCallResult, rpcErr *RPCError, err error) {
	var p ToolsCallParams
	if unmarshalErr := json.Unmarshal(params, &p); unmarshalErr != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, unmarshalErr)
	}
	if p.Name == "" {
		return nil, nil, fmt.Errorf("%w: missing tool name", ErrInvalidEnvelope)
	}
	var args map[string]any
	if len(p.Arguments) == 0 {
		return nil, nil, fmt.Errorf("%w: missing arguments object", ErrInvalidEnvelope)
	}
	if unmarshalErr := json.Unmarshal(p.Arguments, &args); unmarshalErr != nil || args == nil {
		return nil, nil, fmt.Errorf("%w: arguments must be an object", ErrInvalidEnvelope)
	}

	// Execution failures, including panics inside a tool, become a -32603
	// error result rather than crossing the protocol edge.
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("tool panicked", "tool", p.Name, "panic", r)
			result, err = nil, nil
			rpcErr = executionError(fmt.Errorf("panic: %v", r))
		}
	}()

	value, execErr := a.manager.Execute(ctx, p.Name, p.Arguments, nil)
	if execErr != nil {
		a.logger.Warn("tool call failed", "tool", p.Name, "error", execErr)
		return nil, executionError(execErr), nil
	}

	text, marshalErr := json.MarshalIndent(value, "", "  ")
	if marshalErr != nil {
		return nil, executionError(marshalErr), nil
	}
	return &ToolsCallResult{
		Content: []ContentBlock{{Type: "text", Text: string(text)}},
	}, nil, nil
}

func executionError(err error) *RPCError {
	return &RPCError{
		Code:    CodeInternalError,
		Message: "Tool execution failed: " + err.Error(),
	}
}
