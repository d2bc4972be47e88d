package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"kadena-rag/internal/domain"
	"kadena-rag/internal/embedding"
	"kadena-rag/internal/vectorstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
    name       TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS chunks (
    collection TEXT NOT NULL REFERENCES collections(name),
    id         TEXT NOT NULL,
    content    TEXT NOT NULL,
    title      TEXT NOT NULL,
    source     TEXT NOT NULL,
    embedding  BLOB NOT NULL,
    PRIMARY KEY (collection, id)
);
CREATE TABLE IF NOT EXISTS manifests (
    collection     TEXT PRIMARY KEY REFERENCES collections(name),
    corpus_hash    TEXT NOT NULL,
    document_count INTEGER NOT NULL,
    chunk_count    INTEGER NOT NULL,
    created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Store is a SQLite-backed vector store. Embeddings are stored as
// little-endian float32 blobs; similarity is brute-force cosine in Go.
type Store struct {
	db       *sql.DB
	embedder embedding.Embedder
}

// NewStore opens (creating if needed) the database at path and ensures the
// schema exists.
func NewStore(path string, embedder embedding.Embedder) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db, embedder: embedder}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Open fetches the named collection, creating its row if absent. Existing
// and newly created collections are both successful outcomes.
func (s *Store) Open(ctx context.Context, name string) (vectorstore.Collection, bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return nil, false, fmt.Errorf("opening collection %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("opening collection %q: %w", name, err)
	}
	return &collection{db: s.db, embedder: s.embedder, name: name}, n > 0, nil
}

type collection struct {
	db       *sql.DB
	embedder embedding.Embedder
	name     string
}

func (c *collection) Name() string { return c.name }

func (c *collection) InsertBatch(ctx context.Context, ids, texts []string, metadatas []domain.Metadata) error {
	if len(ids) != len(texts) || len(ids) != len(metadatas) {
		return errors.New("ids, texts and metadatas length mismatch")
	}
	if len(ids) == 0 {
		return nil
	}
	vectors, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding batch: %w", err)
	}
	if len(vectors) != len(ids) {
		return errors.New("embedder returned wrong vector count")
	}

	// One transaction per batch keeps the run all-or-nothing.
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (collection, id, content, title, source, embedding) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range ids {
		blob := float32SliceToBytes(vectors[i])
		if _, err := stmt.ExecContext(ctx, c.name, ids[i], texts[i], metadatas[i].Title, metadatas[i].Source, blob); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", ids[i], err)
		}
	}
	return tx.Commit()
}

func (c *collection) Query(ctx context.Context, text string, k int) (*domain.QueryResult, error) {
	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, content, title, source, embedding FROM chunks WHERE collection = ?`, c.name)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}
	defer rows.Close()

	type row struct {
		id       string
		content  string
		metadata domain.Metadata
	}
	var loaded []row
	var scores []float64
	for rows.Next() {
		var r row
		var blob []byte
		if err := rows.Scan(&r.id, &r.content, &r.metadata.Title, &r.metadata.Source, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		loaded = append(loaded, r)
		scores = append(scores, vectorstore.Cosine(bytesToFloat32Slice(blob), vec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}

	result := &domain.QueryResult{}
	for _, i := range vectorstore.Rank(scores, k) {
		result.IDs = append(result.IDs, loaded[i].id)
		result.Documents = append(result.Documents, loaded[i].content)
		result.Metadatas = append(result.Metadatas, loaded[i].metadata)
		result.Distances = append(result.Distances, 1-scores[i])
	}
	return result, nil
}

func (c *collection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE collection = ?`, c.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

func (c *collection) Manifest(ctx context.Context) (*domain.Manifest, error) {
	var m domain.Manifest
	err := c.db.QueryRowContext(ctx,
		`SELECT corpus_hash, document_count, chunk_count, created_at FROM manifests WHERE collection = ?`,
		c.name).Scan(&m.CorpusHash, &m.DocumentCount, &m.ChunkCount, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	return &m, nil
}

func (c *collection) WriteManifest(ctx context.Context, m domain.Manifest) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO manifests (collection, corpus_hash, document_count, chunk_count, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (collection) DO UPDATE SET
		   corpus_hash = excluded.corpus_hash,
		   document_count = excluded.document_count,
		   chunk_count = excluded.chunk_count,
		   created_at = excluded.created_at`,
		c.name, m.CorpusHash, m.DocumentCount, m.ChunkCount, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// float32SliceToBytes converts a []float32 to a little-endian byte slice for
// BLOB storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a stored BLOB back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
