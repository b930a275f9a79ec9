/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - MCP Server
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type echoTools struct{}

func (echoTools) List() []Tool {
	return []Tool{{Name: "echo", Description: "echo", InputSchema: InputSchema{Type: "object"}}}
}

func (echoTools) Execute(ctx context.Context, name string, args map[string]interface{}) (ToolResponse, error) {
	switch name {
	case "echo":
		text, _ := args["text"].(string)
		return NewToolSuccess(text)
	case "broken":
		return ToolResponse{}, errors.New("boom")
	}
	return NewToolError("Tool not found: " + name)
}

type staticResources struct{}

func (staticResources) List() []Resource {
	return []Resource{{URI: "kiosk://test", Name: "test"}}
}

func (staticResources) Read(ctx context.Context, uri string) (ResourceContent, error) {
	if uri != "kiosk://test" {
		return ResourceContent{}, errors.New("unknown resource")
	}
	return NewResourceSuccess(uri, "text/plain", "hello")
}

func handle(t *testing.T, s *Server, raw string) *JSONRPCResponse {
	t.Helper()
	var req JSONRPCRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("bad request fixture: %v", err)
	}
	return s.Handle(context.Background(), req)
}

// roundTrip re-encodes a response so results can be inspected as JSON
func roundTrip(t *testing.T, resp *JSONRPCResponse) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestInitialize(t *testing.T) {
	s := NewServer(echoTools{})

	resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","clientInfo":{"name":"t"}}}`)
	init, ok := resp.Result.(InitializeResult)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if init.ProtocolVersion != "2025-03-26" {
		t.Errorf("protocol = %s", init.ProtocolVersion)
	}
	if init.ServerInfo.Name != ServerName {
		t.Errorf("server name = %s", init.ServerInfo.Name)
	}
	if _, ok := init.Capabilities["resources"]; ok {
		t.Error("resources capability without a provider")
	}

	s.SetResourceProvider(staticResources{})
	resp = handle(t, s, `{"jsonrpc":"2.0","id":2,"method":"initialize"}`)
	init = resp.Result.(InitializeResult)
	if init.ProtocolVersion != ProtocolVersion {
		t.Errorf("default protocol = %s", init.ProtocolVersion)
	}
	if _, ok := init.Capabilities["resources"]; !ok {
		t.Error("missing resources capability")
	}
}

func TestHandle(t *testing.T) {
	s := NewServer(echoTools{})
	s.SetResourceProvider(staticResources{})

	tests := []struct {
		name     string
		request  string
		wantNil  bool
		wantCode int
		wantText string
	}{
		{"notification", `{"jsonrpc":"2.0","method":"notifications/initialized"}`, true, 0, ""},
		{"unknown notification", `{"jsonrpc":"2.0","method":"notifications/cancelled"}`, true, 0, ""},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"nope"}`, false, CodeMethodNotFound, ""},
		{"tool call", `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"text":"olá"}}}`, false, 0, "olá"},
		{"tool error", `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"broken"}}`, false, CodeInternalError, ""},
		{"bad params", `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":"x"}`, false, CodeInvalidParams, ""},
		{"resource read", `{"jsonrpc":"2.0","id":5,"method":"resources/read","params":{"uri":"kiosk://test"}}`, false, 0, "hello"},
		{"resource missing", `{"jsonrpc":"2.0","id":6,"method":"resources/read","params":{"uri":"kiosk://x"}}`, false, CodeInternalError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := handle(t, s, tt.request)
			if tt.wantNil {
				if resp != nil {
					t.Fatalf("expected no response, got %+v", resp)
				}
				return
			}
			if resp == nil {
				t.Fatal("expected a response")
			}
			if tt.wantCode != 0 {
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Fatalf("error = %+v, want code %d", resp.Error, tt.wantCode)
				}
				return
			}
			if resp.Error != nil {
				t.Fatalf("unexpected error %+v", resp.Error)
			}
			if !strings.Contains(string(mustJSON(t, resp.Result)), tt.wantText) {
				t.Errorf("result %s does not contain %q", mustJSON(t, resp.Result), tt.wantText)
			}
		})
	}
}

func TestResourcesUnsupported(t *testing.T) {
	s := NewServer(echoTools{})
	resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`)
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Errorf("expected method not found, got %+v", resp)
	}
}

func TestRunStdio(t *testing.T) {
	s := NewServer(echoTools{})

	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`,
		``,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"text":"regadio"}}}`,
	}, "\n"))
	var out bytes.Buffer

	if err := s.Run(context.Background(), in, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 responses, got %d: %q", len(lines), out.String())
	}

	var list JSONRPCResponse
	_ = json.Unmarshal([]byte(lines[0]), &list)
	if !strings.Contains(lines[0], `"name":"echo"`) {
		t.Errorf("tools/list response = %s", lines[0])
	}

	var parseErr JSONRPCResponse
	_ = json.Unmarshal([]byte(lines[1]), &parseErr)
	if parseErr.Error == nil || parseErr.Error.Code != CodeParseError {
		t.Errorf("expected parse error, got %s", lines[1])
	}

	if !strings.Contains(lines[2], "regadio") {
		t.Errorf("tools/call response = %s", lines[2])
	}
}

func TestServeHTTP(t *testing.T) {
	s := NewServer(echoTools{})

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantInBody string
	}{
		{"get rejected", http.MethodGet, "", http.StatusMethodNotAllowed, "Method not allowed"},
		{"parse error", http.MethodPost, "{", http.StatusOK, `"code":-32700`},
		{"tools list", http.MethodPost, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`, http.StatusOK, `"echo"`},
		{"notification", http.MethodPost, `{"jsonrpc":"2.0","method":"notifications/initialized"}`, http.StatusOK, `"result":{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/mcp/v1", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			s.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if !strings.Contains(rr.Body.String(), tt.wantInBody) {
				t.Errorf("body = %s, want it to contain %s", rr.Body.String(), tt.wantInBody)
			}
		})
	}
}

func TestToolHelpers(t *testing.T) {
	resp, _ := NewToolError("falhou")
	if !resp.IsError || resp.Content[0].Text != "falhou" {
		t.Errorf("NewToolError() = %+v", resp)
	}

	out := roundTrip(t, result(1, resp))
	if out["jsonrpc"] != "2.0" {
		t.Errorf("jsonrpc = %v", out["jsonrpc"])
	}
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}
