/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - MCP Server
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package mcp exposes the assistant over the Model Context Protocol, on
// stdio or as an HTTP handler
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"kiosk-assistant/internal/logging"
)

const (
	ProtocolVersion = "2024-11-05"
	ServerName      = "kiosk-assistant"
	ServerVersion   = "1.0.0"
)

// ToolProvider is an interface for listing and executing tools
type ToolProvider interface {
	List() []Tool
	Execute(ctx context.Context, name string, args map[string]interface{}) (ToolResponse, error)
}

// ResourceProvider is an interface for listing and reading resources
type ResourceProvider interface {
	List() []Resource
	Read(ctx context.Context, uri string) (ResourceContent, error)
}

// Server handles MCP protocol communication
type Server struct {
	tools     ToolProvider
	resources ResourceProvider
	logger    *logging.Logger
}

// NewServer creates a new MCP server
func NewServer(tools ToolProvider) *Server {
	return &Server{
		tools:  tools,
		logger: logging.For("mcp"),
	}
}

// SetResourceProvider sets the resource provider for the server
func (s *Server) SetResourceProvider(resources ResourceProvider) {
	s.resources = resources
}

// Run serves newline-delimited JSON-RPC from in to out until in is
// exhausted or ctx is cancelled
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, ScannerInitialBufferSize), ScannerMaxBufferSize)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp *JSONRPCResponse
		var req JSONRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			resp = errorResponse(nil, CodeParseError, "Parse error", err.Error())
		} else {
			resp = s.Handle(ctx, req)
		}

		if resp == nil {
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}

// ServeHTTP accepts one JSON-RPC request per POST
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, ScannerMaxBufferSize))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var resp *JSONRPCResponse
	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		resp = errorResponse(nil, CodeParseError, "Parse error", err.Error())
	} else {
		s.logger.Debug("request", "method", req.Method, "id", req.ID)
		resp = s.Handle(r.Context(), req)
	}

	// Notifications get an empty result over HTTP
	if resp == nil {
		resp = &JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`{}`)}
	}

	// JSON-RPC errors are still HTTP 200
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

// Handle dispatches one request. Notifications return nil.
func (s *Server) Handle(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		return nil
	case "ping":
		return result(req.ID, map[string]interface{}{})
	case "tools/list":
		return result(req.ID, ToolsListResult{Tools: s.tools.List()})
	case "tools/call":
		return s.handleToolCall(ctx, req)
	case "resources/list":
		if s.resources == nil {
			return errorResponse(req.ID, CodeMethodNotFound, "Resources not supported", nil)
		}
		return result(req.ID, ResourcesListResult{Resources: s.resources.List()})
	case "resources/read":
		return s.handleResourceRead(ctx, req)
	default:
		if req.ID == nil {
			return nil
		}
		return errorResponse(req.ID, CodeMethodNotFound, "Method not found", nil)
	}
}

func (s *Server) handleInitialize(req JSONRPCRequest) *JSONRPCResponse {
	var params InitializeParams
	if err := decodeParams(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}

	// Accept the client's protocol version for compatibility
	protocolVersion := params.ProtocolVersion
	if protocolVersion == "" {
		protocolVersion = ProtocolVersion
	}

	capabilities := map[string]interface{}{
		"tools": map[string]interface{}{},
	}
	if s.resources != nil {
		capabilities["resources"] = map[string]interface{}{}
	}

	s.logger.Info("client initialized", "client", params.ClientInfo.Name, "protocol", protocolVersion)

	return result(req.ID, InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    capabilities,
		ServerInfo: Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
	})
}

func (s *Server) handleToolCall(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	var params ToolCallParams
	if err := decodeParams(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}

	response, err := s.tools.Execute(ctx, params.Name, params.Arguments)
	if err != nil {
		return errorResponse(req.ID, CodeInternalError, "Tool execution error", err.Error())
	}
	return result(req.ID, response)
}

func (s *Server) handleResourceRead(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	if s.resources == nil {
		return errorResponse(req.ID, CodeMethodNotFound, "Resources not supported", nil)
	}

	var params ResourceReadParams
	if err := decodeParams(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}

	content, err := s.resources.Read(ctx, params.URI)
	if err != nil {
		return errorResponse(req.ID, CodeInternalError, "Resource read error", err.Error())
	}
	return result(req.ID, content)
}

func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func result(id, res interface{}) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: res}
}

func errorResponse(id interface{}, code int, message string, data interface{}) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &RPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}
