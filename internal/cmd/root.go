// Package cmd contains all CLI commands for loom.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Version is the current version of loom
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Prompt rendering and document embedding toolkit",
	Long: `loom is a small retrieval pipeline toolkit. It renders prompts from
Jinja-style templates and computes vector embeddings for documents,
storing them in a local database for similarity search.

Main capabilities:
  - Render prompt templates against named values
  - Embed documents with local or remote embedding models
  - Store embedded documents and search them by similarity
  - Expose rendering, embedding, and search as MCP tools

Examples:
  loom init                                        # Create .loom/config.yaml
  loom render -t "Hi {{ name }}" --var name=Ada    # Render a template
  loom embed docs/*.md --save                      # Embed and store documents
  loom search "how do I configure retries?"        # Query stored documents
  loom serve --mcp                                 # Start the MCP server

See 'loom <command> --help' for command-specific options.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Pick up HF_API_TOKEN and friends from a local .env if present.
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: .loom/config.yaml)")
}
