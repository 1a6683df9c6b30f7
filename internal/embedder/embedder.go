package embedder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/loomworks/loom/internal/component"
	"github.com/loomworks/loom/internal/document"
)

// TypeName is the registered component type for DocumentEmbedder.
const TypeName = "DocumentEmbedder"

var (
	// ErrNotWarmedUp is returned when Run is called before WarmUp has
	// succeeded. This is a caller-ordering bug; it is never retried.
	ErrNotWarmedUp = errors.New("embedder: model not loaded: call WarmUp before Run")

	// ErrInvalidInput is returned when the documents input has the wrong
	// shape.
	ErrInvalidInput = errors.New("embedder: DocumentEmbedder expects a list of documents")

	// ErrBatchSize is returned at construction for a non-positive batch
	// size.
	ErrBatchSize = errors.New("embedder: batch size must be positive")
)

// DocumentEmbedder computes an embedding for each document and stores it
// in the document's Embedding field, mutating the documents in place.
// The model is loaded by WarmUp, not at construction: construction is
// cheap and side-effect-free, and Run fails fast until WarmUp succeeds.
type DocumentEmbedder struct {
	settings

	// backend is nil until WarmUp succeeds; that nil/non-nil state is
	// the component's entire lifecycle.
	backend Backend
}

// New creates a DocumentEmbedder. No model access happens here.
func New(opts ...Option) (*DocumentEmbedder, error) {
	s := defaultSettings()
	for _, o := range opts {
		o(&s)
	}
	if s.batchSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBatchSize, s.batchSize)
	}
	return &DocumentEmbedder{settings: s}, nil
}

// WarmUp loads the embedding backend. It is idempotent: once the backend
// exists, further calls are no-ops. This is the only point at which
// model loading occurs.
func (e *DocumentEmbedder) WarmUp(ctx context.Context) error {
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

// Inputs declares the single required documents input.
func (e *DocumentEmbedder) Inputs() []component.InputSocket {
	return []component.InputSocket{{Name: "documents", Required: true}}
}

// Outputs declares the annotated documents output.
func (e *DocumentEmbedder) Outputs() []component.OutputSocket {
	return []component.OutputSocket{{Name: "documents"}}
}

// Embed computes and stores an embedding for each document. Vector i
// corresponds to document i: documents are never reordered, dropped, or
// deduplicated. The same slice is returned, annotated.
func (e *DocumentEmbedder) Embed(ctx context.Context, docs []*document.Document) ([]*document.Document, error) {
	if e.backend == nil {
		return nil, ErrNotWarmedUp
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = e.textToEmbed(d)
	}

	vecs, err := e.backend.Embed(ctx, texts, Options{
		BatchSize: e.batchSize,
		Progress:  e.progress,
		Normalize: e.normalize,
	})
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(docs) {
		return nil, fmt.Errorf("embedder: backend returned %d vectors for %d documents", len(vecs), len(docs))
	}

	for i, d := range docs {
		d.Embedding = vecs[i]
	}
	return docs, nil
}

// Run implements component.Component, validating the input shape at the
// boundary before delegating to Embed.
func (e *DocumentEmbedder) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	docs, err := documentsInput(inputs["documents"])
	if err != nil {
		return nil, err
	}
	out, err := e.Embed(ctx, docs)
	if err != nil {
		return nil, err
	}
	return map[string]any{"documents": out}, nil
}

// textToEmbed builds the string embedded for a document: the configured
// metadata values that are present and non-falsy, then the content,
// joined by the separator and wrapped in prefix/suffix.
func (e *DocumentEmbedder) textToEmbed(d *document.Document) string {
	parts := make([]string, 0, len(e.metaFields)+1)
	for _, key := range e.metaFields {
		v, ok := d.Meta[key]
		if !ok || isFalsy(v) {
			continue
		}
		parts = append(parts, fmt.Sprintf("%v", v))
	}
	parts = append(parts, d.Content)
	return e.prefix + strings.Join(parts, e.separator) + e.suffix
}

// isFalsy reports whether a metadata value is skipped when splicing
// metadata into the embedded text. Zero, false, and the empty string are
// skipped, not just missing keys.
func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case int:
		return x == 0
	case int64:
		return x == 0
	case float32:
		return x == 0
	case float64:
		return x == 0
	default:
		return false
	}
}

// documentsInput validates the run-time shape of the documents input.
func documentsInput(v any) ([]*document.Document, error) {
	switch docs := v.(type) {
	case []*document.Document:
		return docs, nil
	case []string:
		return nil, fmt.Errorf("%w: got a list of strings; use TextEmbedder to embed plain text", ErrInvalidInput)
	case nil:
		return nil, fmt.Errorf("%w: missing documents input", ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidInput, v)
	}
}
