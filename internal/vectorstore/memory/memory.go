package memory

import (
	"context"
	"errors"
	"sync"

	"kadena-rag/internal/domain"
	"kadena-rag/internal/embedding"
	"kadena-rag/internal/vectorstore"
)

// Store keeps collections in process memory with brute-force cosine search.
// Contents do not survive a restart; it backs the "memory" config option and
// tests.
type Store struct {
	mu          sync.Mutex
	embedder    embedding.Embedder
	collections map[string]*collection
}

func NewStore(embedder embedding.Embedder) *Store {
	return &Store{
		embedder:    embedder,
		collections: make(map[string]*collection),
	}
}

func (s *Store) Open(_ context.Context, name string) (vectorstore.Collection, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		return c, false, nil
	}
	c := &collection{name: name, embedder: s.embedder}
	s.collections[name] = c
	return c, true, nil
}

func (s *Store) Close() error { return nil }

type record struct {
	id       string
	text     string
	metadata domain.Metadata
	vector   []float32
}

type collection struct {
	mu       sync.RWMutex
	name     string
	embedder embedding.Embedder
	records  []record
	manifest *domain.Manifest
}

func (c *collection) Name() string { return c.name }

func (c *collection) InsertBatch(ctx context.Context, ids, texts []string, metadatas []domain.Metadata) error {
	if len(ids) != len(texts) || len(ids) != len(metadatas) {
		return errors.New("ids, texts and metadatas length mismatch")
	}
	vectors, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(ids) {
		return errors.New("embedder returned wrong vector count")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range ids {
		c.records = append(c.records, record{
			id:       ids[i],
			text:     texts[i],
			metadata: metadatas[i],
			vector:   vectors[i],
		})
	}
	return nil
}

func (c *collection) Query(ctx context.Context, text string, k int) (*domain.QueryResult, error) {
	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	scores := make([]float64, len(c.records))
	for i, r := range c.records {
		scores[i] = vectorstore.Cosine(r.vector, vec)
	}
	result := &domain.QueryResult{}
	for _, i := range vectorstore.Rank(scores, k) {
		r := c.records[i]
		result.IDs = append(result.IDs, r.id)
		result.Documents = append(result.Documents, r.text)
		result.Metadatas = append(result.Metadatas, r.metadata)
		result.Distances = append(result.Distances, 1-scores[i])
	}
	return result, nil
}

func (c *collection) Count(context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records), nil
}

func (c *collection) Manifest(context.Context) (*domain.Manifest, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.manifest == nil {
		return nil, nil
	}
	m := *c.manifest
	return &m, nil
}

func (c *collection) WriteManifest(_ context.Context, m domain.Manifest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manifest = &m
	return nil
}
