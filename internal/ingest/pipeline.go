package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"kadena-rag/internal/domain"
	"kadena-rag/internal/vectorstore"
)

// ErrCorpusChanged reports that the collection holds a completed ingestion of
// a different corpus. The stored data must be reset before re-ingesting.
var ErrCorpusChanged = errors.New("corpus does not match ingested manifest")

// Stats reports what an ingestion run processed. Reused is true when a
// matching manifest was found and no inserts were performed.
type Stats struct {
	DocumentsProcessed int
	ChunksProcessed    int
	Reused             bool
}

// Pipeline loads a document corpus into a vector store collection exactly
// once. Idempotency is decided by a manifest (corpus hash plus counts)
// written after a successful insert, not by probing stored ids.
type Pipeline struct {
	collection vectorstore.Collection
	chunker    domain.Chunker
	log        *slog.Logger
}

func New(collection vectorstore.Collection, chunker domain.Chunker, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{collection: collection, chunker: chunker, log: log}
}

// Ingest reads the JSON corpus at corpusPath, chunks every document, and
// bulk-loads the collection in a single batch. A failure at any step aborts
// without a partial insert.
func (p *Pipeline) Ingest(ctx context.Context, corpusPath string) (Stats, error) {
	raw, err := os.ReadFile(corpusPath)
	if err != nil {
		return Stats{}, fmt.Errorf("reading corpus: %w", err)
	}
	sum := sha256.Sum256(raw)
	hash := hex.EncodeToString(sum[:])

	manifest, err := p.collection.Manifest(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("checking manifest: %w", err)
	}
	if manifest != nil {
		if manifest.CorpusHash != hash {
			return Stats{}, fmt.Errorf("%w: collection %q was ingested from hash %s",
				ErrCorpusChanged, p.collection.Name(), manifest.CorpusHash[:12])
		}
		p.log.Info("corpus already ingested, skipping",
			"collection", p.collection.Name(),
			"documents", manifest.DocumentCount,
			"chunks", manifest.ChunkCount)
		return Stats{
			DocumentsProcessed: manifest.DocumentCount,
			ChunksProcessed:    manifest.ChunkCount,
			Reused:             true,
		}, nil
	}

	var documents []domain.Document
	if err := json.Unmarshal(raw, &documents); err != nil {
		return Stats{}, fmt.Errorf("parsing corpus: %w", err)
	}

	var (
		ids       []string
		texts     []string
		metadatas []domain.Metadata
	)
	for d, doc := range documents {
		chunks, err := p.chunker.Chunk(doc)
		if err != nil {
			return Stats{}, fmt.Errorf("chunking document %d (%s): %w", d, doc.Source, err)
		}
		for c, ch := range chunks {
			ids = append(ids, fmt.Sprintf("%d-%d", d, c))
			texts = append(texts, ch.Text)
			metadatas = append(metadatas, ch.Metadata)
		}
	}

	p.log.Info("ingesting corpus",
		"collection", p.collection.Name(),
		"documents", len(documents),
		"chunks", len(ids))

	if err := p.collection.InsertBatch(ctx, ids, texts, metadatas); err != nil {
		return Stats{}, fmt.Errorf("inserting chunks: %w", err)
	}
	if err := p.collection.WriteManifest(ctx, domain.Manifest{
		CorpusHash:    hash,
		DocumentCount: len(documents),
		ChunkCount:    len(ids),
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		return Stats{}, fmt.Errorf("writing manifest: %w", err)
	}

	return Stats{DocumentsProcessed: len(documents), ChunksProcessed: len(ids)}, nil
}
