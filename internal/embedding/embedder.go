package embedding

import "context"

// Embedder converts free text into a numeric vector representation used for
// similarity search. Vectors produced by the same embedder are comparable
// with cosine similarity.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
