package protocol

import (
	"encoding/json"
	"fmt"

	"dynafunc/internal/domain"
)

const jsonRPCVersion = "2.0"

// JSON-RPC error codes used at the protocol boundary.
const (
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Message is a JSON-RPC 2.0 envelope. The id is kept raw and echoed back
// unchanged, clients may send numbers or strings.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the JSON-RPC error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ToolsListParams is accepted by tools/list. The cursor is parsed but
// ignored; listings are never paginated.
type ToolsListParams struct {
	Cursor *string `json:"cursor"`
}

// ToolsListResult is returned by tools/list. NextCursor is always null.
type ToolsListResult struct {
	Tools      []domain.ToolDefinition `json:"tools"`
	NextCursor *string                 `json:"nextCursor"`
}

// ToolsCallParams is the tools/call request payload.
type ToolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ContentBlock is one content item inside a tools/call result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ToolsCallResult is returned by a successful tools/call.
type ToolsCallResult struct {
	Content []ContentBlock `json:"content"`
}
