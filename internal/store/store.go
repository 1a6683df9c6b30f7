// Package store provides SQLite-backed persistence for embedded
// documents. The database lives in .loom/loom.db and answers cosine
// similarity queries over the stored vectors.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/loomworks/loom/internal/document"
)

// DBFileName is the name of the loom database file.
const DBFileName = "loom.db"

// Store manages the loom SQLite database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the store database in the specified .loom
// directory, creating the directory and initializing the schema as
// needed.
func Open(loomDir string) (*Store, error) {
	if err := os.MkdirAll(loomDir, 0755); err != nil {
		return nil, fmt.Errorf("create .loom directory: %w", err)
	}

	dbPath := filepath.Join(loomDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open loom db: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// SaveDocuments upserts documents with their embeddings in one
// transaction. Documents without an ID get one derived from their
// content.
func (s *Store) SaveDocuments(docs []*document.Document, model string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	stmt, err := tx.Prepare(`
		INSERT INTO documents (id, content, meta, embedding, model, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			meta = excluded.meta,
			embedding = excluded.embedding,
			model = excluded.model,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare save: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		id := d.ID
		if id == "" {
			id = document.ContentHash(d)
		}
		meta, err := json.Marshal(d.Meta)
		if err != nil {
			return fmt.Errorf("marshal meta for %s: %w", id, err)
		}
		if _, err := stmt.Exec(id, d.Content, string(meta), encodeVector(d.Embedding), model, now, now); err != nil {
			return fmt.Errorf("save document %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// GetDocument retrieves a document by ID. Returns sql.ErrNoRows when it
// does not exist.
func (s *Store) GetDocument(id string) (*document.Document, error) {
	row := s.db.QueryRow(
		"SELECT id, content, meta, embedding FROM documents WHERE id = ?", id)
	return scanDocument(row)
}

// AllDocuments retrieves every stored document with its embedding.
func (s *Store) AllDocuments() ([]*document.Document, error) {
	rows, err := s.db.Query("SELECT id, content, meta, embedding FROM documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []*document.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Count returns the number of stored documents.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// DeleteDocument removes a document by ID.
func (s *Store) DeleteDocument(id string) error {
	if _, err := s.db.Exec("DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*document.Document, error) {
	var (
		d        document.Document
		metaJSON sql.NullString
		blob     []byte
	)
	if err := row.Scan(&d.ID, &d.Content, &metaJSON, &blob); err != nil {
		return nil, err
	}
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &d.Meta); err != nil {
			return nil, fmt.Errorf("unmarshal meta for %s: %w", d.ID, err)
		}
	}
	d.Embedding = decodeVector(blob)
	return &d, nil
}
