package vectorstore

import (
	"context"

	"kadena-rag/internal/domain"
)

// Collection is a named persistent set of (id, embedding, text, metadata)
// records supporting similarity search.
type Collection interface {
	Name() string

	// InsertBatch embeds and appends the given records. It is append-only;
	// the caller guarantees unique ids.
	InsertBatch(ctx context.Context, ids, texts []string, metadatas []domain.Metadata) error

	// Query returns up to k records ranked by similarity to the text. An
	// empty collection yields an empty result, not an error; embedding or
	// storage failures surface as errors and are never masked as empty.
	Query(ctx context.Context, text string, k int) (*domain.QueryResult, error)

	Count(ctx context.Context) (int, error)

	// Manifest returns the ingestion manifest for this collection, or nil
	// if no ingestion has completed.
	Manifest(ctx context.Context) (*domain.Manifest, error)

	WriteManifest(ctx context.Context, m domain.Manifest) error
}

// Store opens named collections. Open fetches an existing collection or
// creates it; both are successful outcomes, distinguished only by the
// created flag.
type Store interface {
	Open(ctx context.Context, name string) (coll Collection, created bool, err error)
	Close() error
}
