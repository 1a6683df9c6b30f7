package cmd

import (
	"fmt"

	"github.com/loomworks/loom/internal/embedder"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search stored documents by similarity",
	Long: `Embed the query with the configured model and rank stored documents by
cosine similarity.

Examples:
  loom search "how do I configure retries?"
  loom search "vector databases" --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var searchLimit int

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum results (default from config)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	limit := cfg.Search.Limit
	if searchLimit > 0 {
		limit = searchLimit
	}

	emb, err := embedder.NewText(cfg.Embedding.EmbedderOptions()...)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := emb.WarmUp(ctx); err != nil {
		return err
	}
	queryVec, err := emb.Embed(ctx, args[0])
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	results, err := st.FindSimilar(queryVec, limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No stored documents match. Run 'loom embed --save' first.")
		return nil
	}

	out, err := yaml.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
