package embedder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/loomworks/loom/internal/secret"
)

// localBackend runs a feature-extraction model in-process through hugot.
// Model identifiers that are not existing paths are treated as
// Hugging Face model names and downloaded into the model cache on first
// use; the resolved credential authorizes the download of gated models.
type localBackend struct {
	model    string
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
}

func newLocalBackend(ctx context.Context, model, device string, token *secret.Secret) (*localBackend, error) {
	if device != "" && device != "cpu" {
		return nil, fmt.Errorf("embedder: unsupported device %q: the in-process runtime is cpu-only", device)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("embedder: create session: %w", err)
	}

	modelPath := model
	if _, statErr := os.Stat(model); statErr != nil {
		// Not a local path: download from the model hub.
		authToken, err := token.Resolve()
		if err != nil {
			session.Destroy()
			return nil, err
		}
		cacheDir, err := modelCacheDir()
		if err != nil {
			session.Destroy()
			return nil, err
		}
		opts := hugot.NewDownloadOptions()
		opts.AuthToken = authToken
		modelPath, err = hugot.DownloadModel(model, cacheDir, opts)
		if err != nil {
			session.Destroy()
			return nil, fmt.Errorf("embedder: download model %s: %w", model, err)
		}
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "loom-embedder",
	})
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("embedder: load model %s: %w", model, err)
	}

	return &localBackend{model: model, session: session, pipeline: pipeline}, nil
}

// Embed generates embeddings for a batch of texts.
func (b *localBackend) Embed(ctx context.Context, texts []string, opts Options) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	bar := newProgressBar(len(texts), opts.Progress, "embedding")
	for _, batch := range chunk(texts, opts.BatchSize) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := b.pipeline.RunPipeline(batch)
		if err != nil {
			return nil, fmt.Errorf("embedder: %s: %w", b.model, err)
		}
		out = append(out, res.Embeddings...)
		if bar != nil {
			_ = bar.Add(len(batch))
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if opts.Normalize {
		normalize(out)
	}
	return out, nil
}

// Model returns the model identifier the backend was loaded with.
func (b *localBackend) Model() string {
	return b.model
}

// Close releases the underlying session.
func (b *localBackend) Close() error {
	return b.session.Destroy()
}

// modelCacheDir returns the directory downloaded models are cached in.
func modelCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("embedder: resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".loom", "models")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("embedder: create model cache: %w", err)
	}
	return dir, nil
}
