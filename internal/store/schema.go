package store

// schemaSQL defines the SQLite schema for the loom database.
// Tables:
//   - documents: stored documents with their embedding vectors
const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    meta TEXT,                        -- JSON object
    embedding BLOB,                   -- float32 little-endian
    model TEXT,                       -- model that produced the embedding
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_model ON documents(model);
`

// initSchema creates the database tables and indexes if they don't exist.
func (s *Store) initSchema() error {
	_, err := s.db.Exec(schemaSQL)
	return err
}
