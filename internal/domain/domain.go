package domain

import "time"

// Document is a single scraped documentation page, read from the corpus file.
type Document struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Title   string `json:"title"`
}

// Metadata identifies the document a chunk was derived from. Every chunk
// carries its own copy, so mutating a Document after chunking cannot leak
// into stored chunks.
type Metadata struct {
	Title  string `json:"title"`
	Source string `json:"source"`
}

// Chunk is a bounded-size contiguous span of a document's text plus the
// inherited metadata of its parent document.
type Chunk struct {
	Text     string
	Metadata Metadata
}

// QueryResult holds retrieval hits in rank order, most relevant first.
// All slices have equal length, at most the requested k.
type QueryResult struct {
	IDs       []string
	Documents []string
	Metadatas []Metadata
	Distances []float64
}

// Len returns the number of retrieved hits.
func (r *QueryResult) Len() int { return len(r.IDs) }

// Answer is the shaped response for a single question. Sources keep the
// retrieval rank order, duplicates included.
type Answer struct {
	Answer  string     `json:"answer"`
	Sources []Metadata `json:"sources"`
}

// Manifest records what a completed ingestion run wrote into a collection.
// It is checked before any insert to decide whether the corpus is already
// ingested.
type Manifest struct {
	CorpusHash    string
	DocumentCount int
	ChunkCount    int
	CreatedAt     time.Time
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}
