package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kadena-rag/internal/chunker"
	"kadena-rag/internal/config"
	"kadena-rag/internal/embedding"
	embopenai "kadena-rag/internal/embedding/openai"
	"kadena-rag/internal/ingest"
	"kadena-rag/internal/llm"
	llmopenai "kadena-rag/internal/llm/openai"
	"kadena-rag/internal/service"
	"kadena-rag/internal/vectorstore"
	"kadena-rag/internal/vectorstore/memory"
	"kadena-rag/internal/vectorstore/sqlite"
)

// App holds the wired components shared by the server and console binaries.
type App struct {
	Engine *service.Engine
	Stats  ingest.Stats

	store vectorstore.Store
}

// Setup assembles the configured components and runs ingestion. Queries must
// not be served before Setup returns: ingestion gates startup so no request
// can observe a partially populated collection.
func Setup(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (*App, error) {
	var emb embedding.Embedder
	switch cfg.Embedder.Type {
	case "openai":
		client, err := embopenai.NewClient(embopenai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
			BatchSize: cfg.Embedder.OpenAI.BatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("embedder init: %w", err)
		}
		emb = client
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var completer llm.Completer
	switch cfg.LLM.Type {
	case "openai":
		client, err := llmopenai.NewClient(llmopenai.Config{
			BaseURL:   cfg.LLM.OpenAI.BaseURL,
			APIKeyEnv: cfg.LLM.OpenAI.APIKeyEnv,
			Model:     cfg.LLM.OpenAI.Model,
			Timeout:   time.Duration(cfg.LLM.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("llm init: %w", err)
		}
		completer = client
	default:
		return nil, fmt.Errorf("unknown llm: %s", cfg.LLM.Type)
	}

	var store vectorstore.Store
	switch cfg.VectorStore.Type {
	case "sqlite":
		st, err := sqlite.NewStore(cfg.VectorStore.SQLite.Path, emb)
		if err != nil {
			return nil, fmt.Errorf("vector store init: %w", err)
		}
		store = st
	case "memory":
		store = memory.NewStore(emb)
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	coll, created, err := store.Open(ctx, cfg.Corpus.Collection)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("opening collection: %w", err)
	}
	if created {
		log.Info("created collection", "collection", cfg.Corpus.Collection)
	} else {
		log.Info("reusing collection", "collection", cfg.Corpus.Collection)
	}

	pipeline := ingest.New(coll, chunker.NewWordChunker(cfg.Chunker.ChunkSize), log)
	stats, err := pipeline.Ingest(ctx, cfg.Corpus.Path)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("ingestion: %w", err)
	}

	n, err := coll.Count(ctx)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("counting chunks: %w", err)
	}
	log.Info("collection ready", "collection", cfg.Corpus.Collection, "chunks", n)

	return &App{
		Engine: service.NewEngine(coll, completer),
		Stats:  stats,
		store:  store,
	}, nil
}

// Close releases the underlying store.
func (a *App) Close() error { return a.store.Close() }
