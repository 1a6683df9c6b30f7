package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/document"
	"github.com/loomworks/loom/internal/embedder"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// embedCmd represents the embed command
var embedCmd = &cobra.Command{
	Use:   "embed [files...]",
	Short: "Compute embeddings for documents",
	Long: `Compute an embedding vector for each input file and attach it to the
document. Each file becomes one document with its path recorded in the
metadata.

With --save, annotated documents are written to the .loom database for
later similarity search. Without it, documents are printed as YAML with
their embedding dimensionality.

Examples:
  loom embed docs/*.md --save
  loom embed notes.txt --model ollama/all-minilm
  loom embed README.md --meta title --prefix "passage: "`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEmbed,
}

var (
	embedModel     string
	embedDevice    string
	embedBatchSize int
	embedNormalize bool
	embedNoBar     bool
	embedPrefix    string
	embedSuffix    string
	embedMeta      []string
	embedSeparator string
	embedSave      bool
)

func init() {
	rootCmd.AddCommand(embedCmd)
	embedCmd.Flags().StringVar(&embedModel, "model", "", "Embedding model (overrides config)")
	embedCmd.Flags().StringVar(&embedDevice, "device", "", "Computation device (overrides config)")
	embedCmd.Flags().IntVar(&embedBatchSize, "batch-size", 0, "Texts per model call (overrides config)")
	embedCmd.Flags().BoolVar(&embedNormalize, "normalize", false, "Scale vectors to unit length")
	embedCmd.Flags().BoolVar(&embedNoBar, "no-progress", false, "Disable the progress bar")
	embedCmd.Flags().StringVar(&embedPrefix, "prefix", "", "String prepended to each text before embedding")
	embedCmd.Flags().StringVar(&embedSuffix, "suffix", "", "String appended to each text before embedding")
	embedCmd.Flags().StringArrayVar(&embedMeta, "meta", nil, "Metadata field spliced into the embedded text (repeatable)")
	embedCmd.Flags().StringVar(&embedSeparator, "separator", "", "Separator joining metadata and content (overrides config)")
	embedCmd.Flags().BoolVar(&embedSave, "save", false, "Store annotated documents in the .loom database")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyEmbedFlags(cmd, &cfg.Embedding)

	docs := make([]*document.Document, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		docs = append(docs, document.New(string(data), map[string]any{
			"path": path,
			"name": filepath.Base(path),
		}))
	}

	emb, err := embedder.New(cfg.Embedding.EmbedderOptions()...)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := emb.WarmUp(ctx); err != nil {
		return err
	}
	if _, err := emb.Embed(ctx, docs); err != nil {
		return err
	}

	if embedSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SaveDocuments(docs, cfg.Embedding.Model); err != nil {
			return err
		}
		fmt.Printf("Embedded and stored %d documents (%d dimensions) in %s\n",
			len(docs), len(docs[0].Embedding), st.Path())
		return nil
	}

	type docSummary struct {
		ID         string `yaml:"id"`
		Path       string `yaml:"path"`
		Dimensions int    `yaml:"dimensions"`
	}
	summaries := make([]docSummary, len(docs))
	for i, d := range docs {
		path, _ := d.Meta["path"].(string)
		summaries[i] = docSummary{ID: d.ID, Path: path, Dimensions: len(d.Embedding)}
	}
	out, err := yaml.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

// applyEmbedFlags overlays command-line flags onto the loaded config.
func applyEmbedFlags(cmd *cobra.Command, cfg *config.EmbeddingConfig) {
	if embedModel != "" {
		cfg.Model = embedModel
	}
	if embedDevice != "" {
		cfg.Device = embedDevice
	}
	if embedBatchSize > 0 {
		cfg.BatchSize = embedBatchSize
	}
	if cmd.Flags().Changed("normalize") {
		cfg.Normalize = embedNormalize
	}
	if embedNoBar {
		cfg.Progress = false
	}
	if embedPrefix != "" {
		cfg.Prefix = embedPrefix
	}
	if embedSuffix != "" {
		cfg.Suffix = embedSuffix
	}
	if len(embedMeta) > 0 {
		cfg.MetaFields = embedMeta
	}
	if embedSeparator != "" {
		cfg.Separator = embedSeparator
	}
}
