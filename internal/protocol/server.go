package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const protocolVersion = "2025-06-18"

// ServerInfo identifies this server in the initialize handshake.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeResult is returned by the initialize request.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities,omitempty"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
}

// Server runs a JSON-RPC loop over a byte stream, answering initialize
// itself and routing tools/* methods to the adapter. Requests are processed
// strictly in arrival order.
type Server struct {
	adapter *Adapter
	info    ServerInfo
	in      io.Reader
	out     io.Writer
	logger  *slog.Logger
}

// NewServer wires an adapter to a request stream, stdin/stdout in practice.
func NewServer(adapter *Adapter, info ServerInfo, in io.Reader, out io.Writer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		adapter: adapter,
		info:    info,
		in:      in,
		out:     out,
		logger:  logger.With("component", "server"),
	}
}

// Run decodes requests until the stream ends or ctx is cancelled. Decode
// errors terminate the loop; per-request failures are answered in-band.
func (s *Server) Run(ctx context.Context) error {
	decoder := json.NewDecoder(s.in)
	encoder := json.NewEncoder(s.out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var req Message
		if err := decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode request: %w", err)
		}
		resp := s.dispatch(ctx, &req)
		if resp == nil {
			continue // notification, no reply
		}
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req *Message) *Message {
	if strings.HasPrefix(req.Method, "notifications/") {
		return nil
	}

	switch {
	case req.Method == "initialize":
		s.adapter.Initialize(ctx)
		return response(req.ID, InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo:      s.info,
		})
	case s.adapter.CanHandle(req.Method):
		result, rpcErr, err := s.adapter.Handle(ctx, req.Method, req.Params)
		if err != nil {
			s.logger.Warn("rejected request", "method", req.Method, "error", err)
			return errorResponse(req.ID, CodeInvalidParams, err.Error())
		}
		if rpcErr != nil {
			return &Message{JSONRPC: jsonRPCVersion, ID: req.ID, Error: rpcErr}
		}
		return response(req.ID, result)
	default:
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func response(id json.RawMessage, result any) *Message {
	raw, err := json.Marshal(result)
	if err != nil {
		return errorResponse(id, CodeInternalError, err.Error())
	}
	return &Message{JSONRPC: jsonRPCVersion, ID: id, Result: raw}
}

func errorResponse(id json.RawMessage, code int, message string) *Message {
	return &Message{JSONRPC: jsonRPCVersion, ID: id, Error: &RPCError{Code: code, Message: message}}
}
