package embedder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/loomworks/loom/internal/component"
	"github.com/loomworks/loom/internal/document"
	"github.com/loomworks/loom/internal/secret"
)

// fakeBackend records calls and returns deterministic vectors derived
// from the input texts.
type fakeBackend struct {
	dims      int
	calls     int
	lastTexts []string
	lastOpts  Options
	forced    [][]float32
	err       error
}

func (f *fakeBackend) Embed(ctx context.Context, texts []string, opts Options) ([][]float32, error) {
	f.calls++
	f.lastTexts = append([]string(nil), texts...)
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	if f.forced != nil {
		return f.forced, nil
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, f.dims)
		for j := range vec {
			vec[j] = float32(len(text) + j)
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeBackend) Model() string { return "fake" }
func (f *fakeBackend) Close() error  { return nil }

func warmedEmbedder(t *testing.T, fake *fakeBackend, opts ...Option) *DocumentEmbedder {
	t.Helper()
	e, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	e.backend = fake
	return e
}

func TestNewRejectsBadBatchSize(t *testing.T) {
	if _, err := New(WithBatchSize(0)); !errors.Is(err, ErrBatchSize) {
		t.Errorf("New(batch=0) error = %v, want ErrBatchSize", err)
	}
	if _, err := New(WithBatchSize(-3)); !errors.Is(err, ErrBatchSize) {
		t.Errorf("New(batch=-3) error = %v, want ErrBatchSize", err)
	}
}

func TestEmbedBeforeWarmUp(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	docs := []*document.Document{document.New("hello", nil)}
	if _, err := e.Embed(context.Background(), docs); !errors.Is(err, ErrNotWarmedUp) {
		t.Errorf("Embed() before WarmUp error = %v, want ErrNotWarmedUp", err)
	}
}

func TestWarmUpIdempotent(t *testing.T) {
	fake := &fakeBackend{dims: 4}
	e := warmedEmbedder(t, fake)

	// Backend already present: WarmUp must be a no-op, not a reload.
	if err := e.WarmUp(context.Background()); err != nil {
		t.Fatalf("WarmUp() error: %v", err)
	}
	if e.backend != fake {
		t.Error("WarmUp() replaced an existing backend")
	}
}

func TestRunRejectsWrongShape(t *testing.T) {
	e := warmedEmbedder(t, &fakeBackend{dims: 4})
	ctx := context.Background()

	_, err := e.Run(ctx, map[string]any{"documents": []string{"plain", "strings"}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Run() with strings error = %v, want ErrInvalidInput", err)
	}
	if !strings.Contains(err.Error(), "TextEmbedder") {
		t.Errorf("error should point at TextEmbedder, got: %v", err)
	}

	if _, err := e.Run(ctx, map[string]any{"documents": 42}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Run() with int error = %v, want ErrInvalidInput", err)
	}
	if _, err := e.Run(ctx, map[string]any{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Run() with missing input error = %v, want ErrInvalidInput", err)
	}
}

func TestEmbedAnnotatesInOrder(t *testing.T) {
	fake := &fakeBackend{dims: 8}
	e := warmedEmbedder(t, fake, WithBatchSize(2), WithProgress(false), WithNormalize(true))

	docs := []*document.Document{
		document.New("first", nil),
		document.New("second", nil),
		document.New("third", nil),
	}
	out, err := e.Embed(context.Background(), docs)
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}

	if len(out) != len(docs) {
		t.Fatalf("Embed() returned %d documents, want %d", len(out), len(docs))
	}
	for i := range docs {
		if out[i] != docs[i] {
			t.Errorf("Embed() reordered or copied document %d", i)
		}
		if len(docs[i].Embedding) != 8 {
			t.Errorf("document %d embedding has %d dims, want 8", i, len(docs[i].Embedding))
		}
	}

	// The whole list goes to the backend in one call, options unchanged.
	if fake.calls != 1 {
		t.Errorf("backend called %d times, want 1", fake.calls)
	}
	wantOpts := Options{BatchSize: 2, Progress: false, Normalize: true}
	if fake.lastOpts != wantOpts {
		t.Errorf("backend opts = %+v, want %+v", fake.lastOpts, wantOpts)
	}
}

func TestEmbedDeterministic(t *testing.T) {
	fake := &fakeBackend{dims: 4}
	e := warmedEmbedder(t, fake, WithProgress(false))

	run := func() [][]float32 {
		docs := []*document.Document{document.New("alpha", nil), document.New("beta", nil)}
		if _, err := e.Embed(context.Background(), docs); err != nil {
			t.Fatalf("Embed() error: %v", err)
		}
		return [][]float32{docs[0].Embedding, docs[1].Embedding}
	}

	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("repeated Embed() differs (-first +second):\n%s", diff)
	}
}

func TestEmbedEmptyList(t *testing.T) {
	fake := &fakeBackend{dims: 4}
	e := warmedEmbedder(t, fake)

	out, err := e.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed(nil) error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("Embed(nil) returned %d documents, want 0", len(out))
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	fake := &fakeBackend{forced: [][]float32{{1, 2}}}
	e := warmedEmbedder(t, fake)

	docs := []*document.Document{document.New("a", nil), document.New("b", nil)}
	if _, err := e.Embed(context.Background(), docs); err == nil {
		t.Error("Embed() should fail when the backend returns a short batch")
	}
}

func TestEmbedPropagatesBackendError(t *testing.T) {
	backendErr := errors.New("model exploded")
	e := warmedEmbedder(t, &fakeBackend{err: backendErr})

	docs := []*document.Document{document.New("a", nil)}
	if _, err := e.Embed(context.Background(), docs); !errors.Is(err, backendErr) {
		t.Errorf("Embed() error = %v, want the backend error unmodified", err)
	}
}

func TestTextToEmbed(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		doc  *document.Document
		want string
	}{
		{
			name: "prefix and suffix",
			opts: []Option{WithPrefix("Q: "), WithSuffix(" /Q")},
			doc:  &document.Document{Content: "hello"},
			want: "Q: hello /Q",
		},
		{
			name: "meta fields join before content",
			opts: []Option{WithMetaFields("title", "author"), WithSeparator("\n")},
			doc: &document.Document{
				Content: "body",
				Meta:    map[string]any{"title": "Doc", "author": "Ada"},
			},
			want: "Doc\nAda\nbody",
		},
		{
			name: "missing meta fields are skipped",
			opts: []Option{WithMetaFields("title", "missing")},
			doc: &document.Document{
				Content: "body",
				Meta:    map[string]any{"title": "Doc"},
			},
			want: "Doc\nbody",
		},
		{
			name: "falsy meta values are skipped, not just missing keys",
			opts: []Option{WithMetaFields("title", "views", "draft", "note")},
			doc: &document.Document{
				Content: "body",
				Meta: map[string]any{
					"title": "Doc",
					"views": 0,
					"draft": false,
					"note":  "",
				},
			},
			want: "Doc\nbody",
		},
		{
			name: "custom separator",
			opts: []Option{WithMetaFields("title"), WithSeparator(" | ")},
			doc: &document.Document{
				Content: "body",
				Meta:    map[string]any{"title": "Doc"},
			},
			want: "Doc | body",
		},
		{
			name: "empty content embeds meta alone",
			opts: []Option{WithMetaFields("title")},
			doc: &document.Document{
				Meta: map[string]any{"title": "Doc"},
			},
			want: "Doc\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.opts...)
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			if got := e.textToEmbed(tt.doc); got != tt.want {
				t.Errorf("textToEmbed() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigRoundTrip(t *testing.T) {
	original, err := New(
		WithModel("ollama/all-minilm"),
		WithToken(secret.FromEnv("MY_TOKEN", false)),
		WithPrefix("passage: "),
		WithBatchSize(16),
		WithProgress(false),
		WithNormalize(true),
		WithMetaFields("title"),
		WithSeparator(" "),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	cfg, err := original.ToConfig()
	if err != nil {
		t.Fatalf("ToConfig() error: %v", err)
	}
	if cfg.Type != TypeName {
		t.Errorf("ToConfig() type = %q, want %q", cfg.Type, TypeName)
	}

	restored, err := component.FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig() error: %v", err)
	}
	re, ok := restored.(*DocumentEmbedder)
	if !ok {
		t.Fatalf("FromConfig() returned %T, want *DocumentEmbedder", restored)
	}

	cfg2, err := re.ToConfig()
	if err != nil {
		t.Fatalf("restored ToConfig() error: %v", err)
	}
	if diff := cmp.Diff(cfg, cfg2); diff != "" {
		t.Errorf("config round-trip mismatch (-original +restored):\n%s", diff)
	}

	doc := &document.Document{Content: "x", Meta: map[string]any{"title": "T"}}
	if got, want := re.textToEmbed(doc), original.textToEmbed(doc); got != want {
		t.Errorf("restored textToEmbed() = %q, want %q", got, want)
	}
}

func TestToConfigRefusesLiteralToken(t *testing.T) {
	e, err := New(WithToken(secret.FromLiteral("raw-secret")))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := e.ToConfig(); !errors.Is(err, secret.ErrLiteralNotSerializable) {
		t.Errorf("ToConfig() error = %v, want ErrLiteralNotSerializable", err)
	}
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		size  int
		want  [][]string
	}{
		{"even split", []string{"a", "b", "c", "d"}, 2, [][]string{{"a", "b"}, {"c", "d"}}},
		{"remainder", []string{"a", "b", "c"}, 2, [][]string{{"a", "b"}, {"c"}}},
		{"oversized batch", []string{"a"}, 10, [][]string{{"a"}}},
		{"non-positive size", []string{"a", "b"}, 0, [][]string{{"a", "b"}}},
		{"empty input", nil, 2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, chunk(tt.texts, tt.size)); diff != "" {
				t.Errorf("chunk() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	vecs := [][]float32{{3, 4}, {0, 0}}
	normalize(vecs)

	if got := vecs[0]; got[0] != 0.6 || got[1] != 0.8 {
		t.Errorf("normalize() = %v, want [0.6 0.8]", got)
	}
	if got := vecs[1]; got[0] != 0 || got[1] != 0 {
		t.Errorf("normalize() zero vector changed: %v", got)
	}
}
