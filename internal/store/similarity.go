package store

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// SimilarityResult is a search hit with its cosine similarity score.
type SimilarityResult struct {
	ID         string  `yaml:"id" json:"id"`
	Content    string  `yaml:"content" json:"content"`
	Similarity float64 `yaml:"similarity" json:"similarity"`
}

// FindSimilar returns the top-K stored documents most similar to the
// query vector, ranked by cosine similarity. Documents without an
// embedding or with a different dimensionality are skipped.
func (s *Store) FindSimilar(queryVec []float32, limit int) ([]SimilarityResult, error) {
	if limit <= 0 {
		limit = 10
	}

	docs, err := s.AllDocuments()
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}

	results := make([]SimilarityResult, 0, len(docs))
	for _, d := range docs {
		if len(d.Embedding) != len(queryVec) || len(d.Embedding) == 0 {
			continue
		}
		results = append(results, SimilarityResult{
			ID:         d.ID,
			Content:    d.Content,
			Similarity: cosineSimilarity(queryVec, d.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors
// of equal length. Returns 0 when either vector is all zeros.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// encodeVector packs a float32 vector into a little-endian byte blob.
// A nil vector encodes as nil.
func encodeVector(v []float32) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks a little-endian byte blob into a float32 vector.
func decodeVector(buf []byte) []float32 {
	if len(buf) == 0 {
		return nil
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
