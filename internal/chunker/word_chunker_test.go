package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadena-rag/internal/domain"
)

func TestWordChunker_EmptyInput(t *testing.T) {
	c := NewWordChunker(500)

	for _, content := range []string{"", "   ", "\n\t  \n"} {
		chunks, err := c.Chunk(domain.Document{Content: content})
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestWordChunker_PreservesWordSequence(t *testing.T) {
	c := NewWordChunker(20)
	content := "Kadena is a scalable proof of work blockchain with a braided " +
		"multi chain architecture called Chainweb and a smart contract language called Pact"

	chunks, err := c.Chunk(domain.Document{Content: content})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var texts []string
	for _, ch := range chunks {
		texts = append(texts, ch.Text)
	}
	rejoined := strings.Join(texts, " ")
	assert.Equal(t, strings.Join(strings.Fields(content), " "), rejoined)
}

func TestWordChunker_RespectsBudget(t *testing.T) {
	c := NewWordChunker(15)
	content := "one two three four five six seven eight nine ten"

	chunks, err := c.Chunk(domain.Document{Content: content})
	require.NoError(t, err)

	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 15, "chunk %q exceeds budget", ch.Text)
	}
}

func TestWordChunker_OversizedWordBecomesOwnChunk(t *testing.T) {
	c := NewWordChunker(10)
	long := strings.Repeat("x", 25)

	chunks, err := c.Chunk(domain.Document{Content: "short " + long + " tail"})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "short", chunks[0].Text)
	assert.Equal(t, long, chunks[1].Text)
	assert.Equal(t, "tail", chunks[2].Text)
}

func TestWordChunker_SingleChunkWithinBudget(t *testing.T) {
	c := NewWordChunker(500)

	chunks, err := c.Chunk(domain.Document{Content: "a short document"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short document", chunks[0].Text)
}

func TestWordChunker_CopiesMetadataOntoEveryChunk(t *testing.T) {
	c := NewWordChunker(10)
	doc := domain.Document{
		Content: "alpha beta gamma delta epsilon zeta",
		Source:  "mining.md",
		Title:   "Mining",
	}

	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	want := domain.Metadata{Title: "Mining", Source: "mining.md"}
	for _, ch := range chunks {
		assert.Equal(t, want, ch.Metadata)
	}
}

func TestWordChunker_NormalizesInternalWhitespace(t *testing.T) {
	c := NewWordChunker(500)

	chunks, err := c.Chunk(domain.Document{Content: "spaced\n\nout\t words  here"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "spaced out words here", chunks[0].Text)
}

func TestWordChunker_ZeroBudgetFallsBackToDefault(t *testing.T) {
	c := NewWordChunker(0)
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
}
