// Package document defines the unit of content that flows through loom
// pipelines: text plus metadata plus an optional embedding vector.
package document

import (
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"sort"
)

// Document is a unit of content with metadata and an optional embedding.
// Pipeline stages that process a Document mutate it in place; they never
// copy or replace it.
type Document struct {
	ID        string         `yaml:"id" json:"id"`
	Content   string         `yaml:"content" json:"content"`
	Meta      map[string]any `yaml:"meta,omitempty" json:"meta,omitempty"`
	Embedding []float32      `yaml:"embedding,omitempty" json:"embedding,omitempty"`
}

// New creates a Document with an ID derived from its content and metadata.
func New(content string, meta map[string]any) *Document {
	d := &Document{Content: content, Meta: meta}
	d.ID = ContentHash(d)
	return d
}

// ContentHash generates a stable 16-character hex ID from a document's
// content and metadata. Metadata keys are hashed in sorted order so the
// hash does not depend on map iteration.
func ContentHash(d *Document) string {
	h := fnv.New64a()
	h.Write([]byte(d.Content))

	keys := make([]string, 0, len(d.Meta))
	for k := range d.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		fmt.Fprintf(h, "%v", d.Meta[k])
	}

	return hex.EncodeToString(h.Sum(nil))
}
