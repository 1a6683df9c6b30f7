// Package embedder computes vector embeddings for documents and plain
// text. Components in this package hold configuration only; the model
// itself lives behind the Backend interface and is loaded explicitly via
// WarmUp, never implicitly at construction.
package embedder

import (
	"context"
	"math"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Options are the per-call knobs a component forwards to its backend
// unchanged.
type Options struct {
	// BatchSize is the number of texts encoded per model call.
	BatchSize int
	// Progress displays a progress bar on stderr while embedding.
	Progress bool
	// Normalize scales returned vectors to unit length.
	Normalize bool
}

// Backend is a handle to a loaded embedding model. A backend returns one
// vector per input text, in input order, and every vector it produces
// has the same dimensionality.
type Backend interface {
	// Embed generates embeddings for a batch of texts.
	Embed(ctx context.Context, texts []string, opts Options) ([][]float32, error)

	// Model returns the model identifier the backend was loaded with.
	Model() string

	// Close releases resources held by the backend.
	Close() error
}

// chunk splits texts into batches of at most size elements, preserving
// order. A non-positive size yields a single batch.
func chunk(texts []string, size int) [][]string {
	if size <= 0 {
		size = len(texts)
	}
	var batches [][]string
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, texts[start:end])
	}
	return batches
}

// normalize scales each vector to unit length in place. Zero vectors are
// left untouched.
func normalize(vecs [][]float32) {
	for _, v := range vecs {
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		if sum == 0 {
			continue
		}
		norm := float32(math.Sqrt(sum))
		for i := range v {
			v[i] /= norm
		}
	}
}

// newProgressBar returns a progress bar writing to stderr, or nil when
// progress display is off.
func newProgressBar(total int, enabled bool, description string) *progressbar.ProgressBar {
	if !enabled {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
}
