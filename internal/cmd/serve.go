package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/loomworks/loom/internal/mcp"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for AI agent integration",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

This lets AI agents render prompts, embed documents, and search the
document store through MCP tools instead of spawning CLI commands. The
embedding model stays loaded between calls.

Available Tools:
  loom_render   Render a prompt template against named values
  loom_embed    Embed texts with the configured model
  loom_search   Similarity search over stored documents

Examples:
  loom serve --mcp                             # Start with default tools
  loom serve --mcp --tools render,search       # Start with specific tools
  loom serve --mcp --timeout 30m               # Auto-stop when idle
  loom serve --list-tools                      # Show available tools`,
	RunE: runServe,
}

var (
	serveMCP       bool
	serveTools     string
	serveTimeout   string
	serveListTools bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Start the MCP server on stdio")
	serveCmd.Flags().StringVar(&serveTools, "tools", "", "Comma-separated tools to expose (default: all)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "", "Inactivity timeout, e.g. 30m (default: none)")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List available tools and exit")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveListTools {
		for _, name := range mcp.AllTools {
			fmt.Println(name)
		}
		return nil
	}
	if !serveMCP {
		return fmt.Errorf("nothing to do: pass --mcp to start the server (or --list-tools)")
	}

	cfg := mcp.Config{}
	if serveTools != "" {
		for _, name := range strings.Split(serveTools, ",") {
			name = strings.TrimSpace(name)
			if !strings.HasPrefix(name, "loom_") {
				name = "loom_" + name
			}
			cfg.Tools = append(cfg.Tools, name)
		}
	}
	if serveTimeout != "" {
		d, err := time.ParseDuration(serveTimeout)
		if err != nil {
			return fmt.Errorf("invalid --timeout: %w", err)
		}
		cfg.Timeout = d
	}

	srv, err := mcp.New(cfg)
	if err != nil {
		return err
	}
	return srv.ServeStdio()
}
