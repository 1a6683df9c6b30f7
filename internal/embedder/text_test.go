package embedder

import (
	"context"
	"errors"
	"testing"
)

func warmedTextEmbedder(t *testing.T, fake *fakeBackend, opts ...Option) *TextEmbedder {
	t.Helper()
	e, err := NewText(opts...)
	if err != nil {
		t.Fatalf("NewText() error: %v", err)
	}
	e.backend = fake
	return e
}

func TestTextEmbedBeforeWarmUp(t *testing.T) {
	e, err := NewText()
	if err != nil {
		t.Fatalf("NewText() error: %v", err)
	}
	if _, err := e.Embed(context.Background(), "hello"); !errors.Is(err, ErrNotWarmedUp) {
		t.Errorf("Embed() before WarmUp error = %v, want ErrNotWarmedUp", err)
	}
}

func TestTextEmbedAppliesAffixes(t *testing.T) {
	fake := &fakeBackend{dims: 4}
	e := warmedTextEmbedder(t, fake, WithPrefix("query: "), WithSuffix(" /end"))

	vec, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vec) != 4 {
		t.Errorf("Embed() returned %d dims, want 4", len(vec))
	}
	if got, want := fake.lastTexts[0], "query: hello /end"; got != want {
		t.Errorf("backend received %q, want %q", got, want)
	}
}

func TestTextEmbedderIgnoresMetaOptions(t *testing.T) {
	e, err := NewText(WithMetaFields("title", "author"))
	if err != nil {
		t.Fatalf("NewText() error: %v", err)
	}
	if len(e.metaFields) != 0 {
		t.Errorf("metaFields = %v, want none", e.metaFields)
	}
}

func TestTextRunRejectsNonString(t *testing.T) {
	e := warmedTextEmbedder(t, &fakeBackend{dims: 4})

	if _, err := e.Run(context.Background(), map[string]any{"text": 42}); err == nil {
		t.Error("Run() with non-string input should fail")
	}

	out, err := e.Run(context.Background(), map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if vec, ok := out["embedding"].([]float32); !ok || len(vec) != 4 {
		t.Errorf("Run() embedding = %v, want 4-dim vector", out["embedding"])
	}
}
