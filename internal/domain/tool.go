package domain

import (
	"context"
	"encoding/json"
)

// Tool is the interface for invocable capabilities (shell, file ops, search, etc).
// Arguments arrive as a decoded JSON object; Validate is always consulted before
// Execute so side effects never run on arguments the tool would reject.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Validate(args map[string]any) bool
	Execute(ctx context.Context, args map[string]any, conf map[string]any) (any, error)
}

// ToolDefinition is the listing shape exposed over the protocol boundary.
// InputSchema is an opaque JSON-schema object; this core never interprets it.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// LegacyExecutor is the raw executor shape kept for compatibility. Unlike
// Tool.Execute it receives the wire-form arguments undecoded: callers that
// registered through the legacy path historically did their own decoding, and
// that asymmetry is preserved rather than unified.
type LegacyExecutor func(ctx context.Context, raw json.RawMessage, conf map[string]any) (any, error)

// ToolCallRecord is an audit row describing one tool execution.
type ToolCallRecord struct {
	ID        string `json:"id"`
	Tool      string `json:"tool"`
	Arguments string `json:"arguments"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// ToolRecorder receives audit records for executed tools. Recording failures
// are the recorder's problem, never the caller's.
type ToolRecorder interface {
	RecordToolCall(ctx context.Context, rec ToolCallRecord)
}
