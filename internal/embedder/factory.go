package embedder

import (
	"context"
	"strings"
	"sync"

	"github.com/loomworks/loom/internal/secret"
)

// Backends are expensive to create, so the factory caches them by
// model, device, and credential identity: two embedders configured the
// same way share one loaded model for the life of the process.
var (
	factoryMu sync.Mutex
	backends  = map[string]Backend{}
)

// NewBackend returns a backend for the given model and device, creating
// it on first use. The credential is resolved here, at the point the
// backend actually needs it.
//
// The implementation is picked from the model identifier scheme:
//
//	openai/<model>  remote OpenAI embeddings API
//	ollama/<model>  local Ollama server
//	anything else   in-process ONNX model via hugot
func NewBackend(ctx context.Context, model, device string, token *secret.Secret) (Backend, error) {
	key := model + "|" + device + "|" + token.Key()

	factoryMu.Lock()
	defer factoryMu.Unlock()
	if b, ok := backends[key]; ok {
		return b, nil
	}

	b, err := openBackend(ctx, model, device, token)
	if err != nil {
		return nil, err
	}
	backends[key] = b
	return b, nil
}

func openBackend(ctx context.Context, model, device string, token *secret.Secret) (Backend, error) {
	switch {
	case strings.HasPrefix(model, "openai/"):
		return newOpenAIBackend(strings.TrimPrefix(model, "openai/"), token)
	case strings.HasPrefix(model, "ollama/"):
		return newOllamaBackend(strings.TrimPrefix(model, "ollama/")), nil
	default:
		return newLocalBackend(ctx, model, device, token)
	}
}
