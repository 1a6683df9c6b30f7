package embedder

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/loomworks/loom/internal/secret"
)

// openaiBackend embeds text through the OpenAI embeddings API. The
// resolved credential is the API key; unlike the local backend it is
// required, so an empty resolution fails here rather than later.
type openaiBackend struct {
	model  string
	client *openai.Client
}

func newOpenAIBackend(model string, token *secret.Secret) (*openaiBackend, error) {
	key, err := token.Resolve()
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, errors.New("embedder: openai backend requires an API key")
	}
	return &openaiBackend{model: model, client: openai.NewClient(key)}, nil
}

// Embed generates embeddings for a batch of texts.
func (b *openaiBackend) Embed(ctx context.Context, texts []string, opts Options) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	bar := newProgressBar(len(texts), opts.Progress, "embedding")
	for _, batch := range chunk(texts, opts.BatchSize) {
		resp, err := b.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: batch,
			Model: openai.EmbeddingModel(b.model),
		})
		if err != nil {
			return nil, fmt.Errorf("embedder: openai embed: %w", err)
		}
		for _, d := range resp.Data {
			out = append(out, d.Embedding)
		}
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
func (b *openaiBackend) Model() string {
	return b.model
}

// Close is a no-op for the HTTP-based backend.
func (b *openaiBackend) Close() error {
	return nil
}
