package embedder

import (
	"context"
	"errors"
	"fmt"

	"github.com/loomworks/loom/internal/component"
)

// TextTypeName is the registered component type for TextEmbedder.
const TextTypeName = "TextEmbedder"

// TextEmbedder embeds a single plain string. It shares the backend
// plumbing of DocumentEmbedder but has no metadata splicing; use it for
// query embedding, where there is no document to annotate.
type TextEmbedder struct {
	settings

	backend Backend
}

// NewText creates a TextEmbedder. Metadata-related options are ignored.
func NewText(opts ...Option) (*TextEmbedder, error) {
	s := defaultSettings()
	for _, o := range opts {
		o(&s)
	}
	if s.batchSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBatchSize, s.batchSize)
	}
	s.metaFields = nil
	return &TextEmbedder{settings: s}, nil
}

// WarmUp loads the embedding backend. Idempotent.
func (e *TextEmbedder) WarmUp(ctx context.Context) error {
	if e.backend != nil {
		return nil
	}
	b, err := NewBackend(ctx, e.model, e.device, e.token)
	if err != nil {
		return err
	}
	e.backend = b
	return nil
}

// Inputs declares the single required text input.
func (e *TextEmbedder) Inputs() []component.InputSocket {
	return []component.InputSocket{{Name: "text", Required: true}}
}

// Outputs declares the embedding output.
func (e *TextEmbedder) Outputs() []component.OutputSocket {
	return []component.OutputSocket{{Name: "embedding"}}
}

// Embed computes the embedding of one string.
func (e *TextEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.backend == nil {
		return nil, ErrNotWarmedUp
	}
	vecs, err := e.backend.Embed(ctx, []string{e.prefix + text + e.suffix}, Options{
		BatchSize: e.batchSize,
		Progress:  false,
		Normalize: e.normalize,
	})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder: backend returned %d vectors for 1 text", len(vecs))
	}
	return vecs[0], nil
}

// Run implements component.Component.
func (e *TextEmbedder) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	text, ok := inputs["text"].(string)
	if !ok {
		return nil, errors.New("embedder: TextEmbedder expects a string text input; use DocumentEmbedder to embed documents")
	}
	vec, err := e.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return map[string]any{"embedding": vec}, nil
}
