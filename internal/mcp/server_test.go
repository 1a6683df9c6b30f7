package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/loomworks/loom/internal/config"
)

func renderRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func testServer() *Server {
	return &Server{cfg: config.DefaultConfig(), tools: map[string]bool{}}
}

func TestHandleRender(t *testing.T) {
	s := testServer()

	res, err := s.handleRender(context.Background(), renderRequest(map[string]any{
		"template":  "Translate to {{ lang }}: {{ text }}",
		"variables": `{"lang": "spanish", "text": "hello"}`,
	}))
	if err != nil {
		t.Fatalf("handleRender() error: %v", err)
	}
	if res.IsError {
		t.Fatalf("handleRender() returned tool error: %v", res.Content)
	}

	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	if text.Text != "Translate to spanish: hello" {
		t.Errorf("rendered = %q, want %q", text.Text, "Translate to spanish: hello")
	}
}

func TestHandleRenderMissingTemplate(t *testing.T) {
	s := testServer()

	res, err := s.handleRender(context.Background(), renderRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handleRender() error: %v", err)
	}
	if !res.IsError {
		t.Error("handleRender() without template should return a tool error")
	}
}

func TestHandleRenderBadVariables(t *testing.T) {
	s := testServer()

	res, err := s.handleRender(context.Background(), renderRequest(map[string]any{
		"template":  "{{ x }}",
		"variables": "not json",
	}))
	if err != nil {
		t.Fatalf("handleRender() error: %v", err)
	}
	if !res.IsError {
		t.Error("handleRender() with malformed variables should return a tool error")
	}
}

func TestRegisterToolUnknown(t *testing.T) {
	s := testServer()
	err := s.registerTool("loom_bogus")
	if err == nil {
		t.Fatal("registerTool() with unknown name should fail")
	}
	if !strings.Contains(err.Error(), "loom_bogus") {
		t.Errorf("error should name the unknown tool, got: %v", err)
	}
}
