package store

import (
	"database/sql"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/loomworks/loom/internal/document"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetDocument(t *testing.T) {
	s := openTestStore(t)

	doc := document.New("hello world", map[string]any{"lang": "en"})
	doc.Embedding = []float32{0.1, 0.2, 0.3}

	if err := s.SaveDocuments([]*document.Document{doc}, "test-model"); err != nil {
		t.Fatalf("SaveDocuments() error: %v", err)
	}

	got, err := s.GetDocument(doc.ID)
	if err != nil {
		t.Fatalf("GetDocument() error: %v", err)
	}
	if got.Content != "hello world" {
		t.Errorf("Content = %q, want %q", got.Content, "hello world")
	}
	if got.Meta["lang"] != "en" {
		t.Errorf("Meta = %v, want lang=en", got.Meta)
	}
	if diff := cmp.Diff(doc.Embedding, got.Embedding); diff != "" {
		t.Errorf("Embedding mismatch (-want +got):\n%s", diff)
	}
}

func TestGetDocumentMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetDocument("no-such-id"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetDocument() error = %v, want sql.ErrNoRows", err)
	}
}

func TestSaveDocumentsUpserts(t *testing.T) {
	s := openTestStore(t)

	doc := &document.Document{ID: "fixed", Content: "v1", Embedding: []float32{1}}
	if err := s.SaveDocuments([]*document.Document{doc}, "m"); err != nil {
		t.Fatalf("SaveDocuments() error: %v", err)
	}

	doc.Content = "v2"
	doc.Embedding = []float32{2}
	if err := s.SaveDocuments([]*document.Document{doc}, "m"); err != nil {
		t.Fatalf("SaveDocuments() update error: %v", err)
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1 after upsert", n)
	}

	got, err := s.GetDocument("fixed")
	if err != nil {
		t.Fatalf("GetDocument() error: %v", err)
	}
	if got.Content != "v2" || got.Embedding[0] != 2 {
		t.Errorf("upsert did not replace: content=%q embedding=%v", got.Content, got.Embedding)
	}
}

func TestDeleteDocument(t *testing.T) {
	s := openTestStore(t)

	doc := document.New("bye", nil)
	if err := s.SaveDocuments([]*document.Document{doc}, "m"); err != nil {
		t.Fatalf("SaveDocuments() error: %v", err)
	}
	if err := s.DeleteDocument(doc.ID); err != nil {
		t.Fatalf("DeleteDocument() error: %v", err)
	}

	n, _ := s.Count()
	if n != 0 {
		t.Errorf("Count() = %d after delete, want 0", n)
	}
}

func TestFindSimilar(t *testing.T) {
	s := openTestStore(t)

	docs := []*document.Document{
		{ID: "east", Content: "east", Embedding: []float32{1, 0}},
		{ID: "north", Content: "north", Embedding: []float32{0, 1}},
		{ID: "northeast", Content: "northeast", Embedding: []float32{1, 1}},
	}
	if err := s.SaveDocuments(docs, "m"); err != nil {
		t.Fatalf("SaveDocuments() error: %v", err)
	}

	results, err := s.FindSimilar([]float32{1, 0.1}, 2)
	if err != nil {
		t.Fatalf("FindSimilar() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("FindSimilar() returned %d results, want 2", len(results))
	}
	if results[0].ID != "east" {
		t.Errorf("top result = %s, want east", results[0].ID)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Error("results not sorted by similarity")
	}
}

func TestFindSimilarSkipsMismatchedDimensions(t *testing.T) {
	s := openTestStore(t)

	docs := []*document.Document{
		{ID: "ok", Content: "ok", Embedding: []float32{1, 0}},
		{ID: "wrong-dims", Content: "wrong", Embedding: []float32{1, 0, 0}},
		{ID: "no-embedding", Content: "none"},
	}
	if err := s.SaveDocuments(docs, "m"); err != nil {
		t.Fatalf("SaveDocuments() error: %v", err)
	}

	results, err := s.FindSimilar([]float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("FindSimilar() error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "ok" {
		t.Errorf("FindSimilar() = %v, want only the matching-dimension document", results)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2}, []float32{1, 2}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosineSimilarity() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestVectorCodecRoundTrip(t *testing.T) {
	vec := []float32{0, -1.5, 3.25, math.MaxFloat32}
	got := decodeVector(encodeVector(vec))
	if diff := cmp.Diff(vec, got); diff != "" {
		t.Errorf("vector codec mismatch (-want +got):\n%s", diff)
	}

	if encodeVector(nil) != nil {
		t.Error("encodeVector(nil) should be nil")
	}
	if decodeVector(nil) != nil {
		t.Error("decodeVector(nil) should be nil")
	}
}
