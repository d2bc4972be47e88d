package chunker

import (
	"strings"

	"kadena-rag/internal/domain"
)

// DefaultChunkSize is the character budget applied when none is configured.
const DefaultChunkSize = 500

// WordChunker splits document text on whitespace and greedily packs whole
// words into chunks of at most chunkSize characters. Words are never split;
// a single word longer than the budget becomes its own oversized chunk.
type WordChunker struct {
	chunkSize int
}

func NewWordChunker(chunkSize int) *WordChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &WordChunker{chunkSize: chunkSize}
}

func (c *WordChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	words := strings.Fields(document.Content)
	if len(words) == 0 {
		return nil, nil
	}
	meta := domain.Metadata{Title: document.Title, Source: document.Source}
	var chunks []domain.Chunk
	current := words[0]
	for _, w := range words[1:] {
		if len(current)+1+len(w) <= c.chunkSize {
			current += " " + w
			continue
		}
		chunks = append(chunks, domain.Chunk{Text: current, Metadata: meta})
		current = w
	}
	chunks = append(chunks, domain.Chunk{Text: current, Metadata: meta})
	return chunks, nil
}
