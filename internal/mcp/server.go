// Package mcp provides an MCP (Model Context Protocol) server for loom.
// This allows AI agents to render prompts, embed documents, and search
// the document store through MCP tools instead of CLI commands.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/document"
	"github.com/loomworks/loom/internal/embedder"
	"github.com/loomworks/loom/internal/prompt"
	"github.com/loomworks/loom/internal/store"
)

// Server wraps the MCP server with loom-specific functionality
type Server struct {
	mcpServer *server.MCPServer
	cfg       *config.Config
	tools     map[string]bool

	// Embedders are created lazily on first use and kept warm for the
	// session; model loading is too expensive to repeat per call.
	embMu   sync.Mutex
	docEmb  *embedder.DocumentEmbedder
	textEmb *embedder.TextEmbedder

	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	Tools   []string      // Which tools to expose (empty = all)
	Timeout time.Duration // Inactivity timeout (0 = no timeout)
}

// DefaultTools is the default set of tools to expose
var DefaultTools = []string{"loom_render", "loom_embed", "loom_search"}

// AllTools lists all available tools
var AllTools = []string{"loom_render", "loom_embed", "loom_search"}

// New creates a new MCP server for loom
func New(cfg Config) (*Server, error) {
	appCfg, err := config.Load(".")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	mcpServer := server.NewMCPServer(
		"loom",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:    mcpServer,
		cfg:          appCfg,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = DefaultTools
	}
	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		s.tools[toolName] = true
	}

	return s, nil
}

// registerTool registers a single tool with the MCP server
func (s *Server) registerTool(name string) error {
	switch name {
	case "loom_render":
		s.registerRenderTool()
	case "loom_embed":
		s.registerEmbedTool()
	case "loom_search":
		s.registerSearchTool()
	default:
		return fmt.Errorf("unknown tool: %s", name)
	}
	return nil
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}
	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "loom serve: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// registerRenderTool registers the loom_render tool
func (s *Server) registerRenderTool() {
	tool := mcp.NewTool("loom_render",
		mcp.WithDescription("Render a Jinja-style prompt template against named values."),
		mcp.WithString("template",
			mcp.Required(),
			mcp.Description("Template string, e.g. \"Translate to {{ lang }}: {{ text }}\""),
		),
		mcp.WithString("variables",
			mcp.Description("JSON object mapping template variables to values"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleRender)
}

// registerEmbedTool registers the loom_embed tool
func (s *Server) registerEmbedTool() {
	tool := mcp.NewTool("loom_embed",
		mcp.WithDescription("Embed a list of texts as documents with the configured model. Optionally store them for search."),
		mcp.WithString("texts",
			mcp.Required(),
			mcp.Description("JSON array of strings to embed"),
		),
		mcp.WithBoolean("save",
			mcp.Description("Store the embedded documents in the .loom database"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleEmbed)
}

// registerSearchTool registers the loom_search tool
func (s *Server) registerSearchTool() {
	tool := mcp.NewTool("loom_search",
		mcp.WithDescription("Search stored documents by cosine similarity to a query."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Query text"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results (default from config)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleSearch)
}

func (s *Server) handleRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	source, ok := args["template"].(string)
	if !ok || source == "" {
		return mcp.NewToolResultError("template parameter is required"), nil
	}

	values := map[string]any{}
	if raw, ok := args["variables"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &values); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("variables must be a JSON object: %v", err)), nil
		}
	}

	builder, err := prompt.New(source)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rendered, err := builder.Render(values)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(rendered), nil
}

func (s *Server) handleEmbed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	raw, ok := args["texts"].(string)
	if !ok || raw == "" {
		return mcp.NewToolResultError("texts parameter is required"), nil
	}
	var texts []string
	if err := json.Unmarshal([]byte(raw), &texts); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("texts must be a JSON array of strings: %v", err)), nil
	}

	emb, err := s.documentEmbedder(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	docs := make([]*document.Document, len(texts))
	for i, t := range texts {
		docs[i] = document.New(t, nil)
	}
	if _, err := emb.Embed(ctx, docs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	save, _ := args["save"].(bool)
	if save {
		st, err := s.openStore()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		defer st.Close()
		if err := st.SaveDocuments(docs, s.cfg.Embedding.Model); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	type result struct {
		ID         string `yaml:"id"`
		Dimensions int    `yaml:"dimensions"`
		Saved      bool   `yaml:"saved"`
	}
	results := make([]result, len(docs))
	for i, d := range docs {
		results[i] = result{ID: d.ID, Dimensions: len(d.Embedding), Saved: save}
	}
	out, err := yaml.Marshal(results)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	limit := s.cfg.Search.Limit
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	emb, err := s.textEmbedder(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	queryVec, err := emb.Embed(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	st, err := s.openStore()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer st.Close()

	results, err := st.FindSimilar(queryVec, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := yaml.Marshal(results)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// documentEmbedder returns the session's document embedder, warming it on
// first use.
func (s *Server) documentEmbedder(ctx context.Context) (*embedder.DocumentEmbedder, error) {
	s.embMu.Lock()
	defer s.embMu.Unlock()
	if s.docEmb == nil {
		emb, err := embedder.New(s.cfg.Embedding.EmbedderOptions()...)
		if err != nil {
			return nil, err
		}
		if err := emb.WarmUp(ctx); err != nil {
			return nil, err
		}
		s.docEmb = emb
	}
	return s.docEmb, nil
}

// textEmbedder returns the session's text embedder, warming it on first
// use.
func (s *Server) textEmbedder(ctx context.Context) (*embedder.TextEmbedder, error) {
	s.embMu.Lock()
	defer s.embMu.Unlock()
	if s.textEmb == nil {
		emb, err := embedder.NewText(s.cfg.Embedding.EmbedderOptions()...)
		if err != nil {
			return nil, err
		}
		if err := emb.WarmUp(ctx); err != nil {
			return nil, err
		}
		s.textEmb = emb
	}
	return s.textEmb, nil
}

// openStore opens the .loom database for the current project.
func (s *Server) openStore() (*store.Store, error) {
	loomDir, err := config.FindConfigDir(".")
	if err != nil {
		loomDir = config.ConfigDirName
	}
	return store.Open(loomDir)
}
