package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadena-rag/internal/domain"
)

// fakeEmbedder returns preconfigured vectors per text.
type fakeEmbedder struct {
	vectors  map[string][]float32
	embedErr error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func newTestStore(t *testing.T, emb *fakeEmbedder) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(path, emb)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestStore_OpenIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t, &fakeEmbedder{})
	ctx := context.Background()

	_, created, err := s.Open(ctx, "docs")
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = s.Open(ctx, "docs")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestCollection_InsertAndQuery(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"Kadena uses Blake2s mining.":        {1, 0, 0},
		"Pact is a smart contract language.": {0, 1, 0},
		"how does mining work":               {0.95, 0.05, 0},
	}}
	s, _ := newTestStore(t, emb)
	ctx := context.Background()
	c, _, err := s.Open(ctx, "docs")
	require.NoError(t, err)

	require.NoError(t, c.InsertBatch(ctx,
		[]string{"0-0", "1-0"},
		[]string{"Kadena uses Blake2s mining.", "Pact is a smart contract language."},
		[]domain.Metadata{
			{Title: "Mining", Source: "mining.md"},
			{Title: "Pact", Source: "pact.md"},
		}))

	res, err := c.Query(ctx, "how does mining work", 1)
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())
	assert.Equal(t, "0-0", res.IDs[0])
	assert.Equal(t, "Kadena uses Blake2s mining.", res.Documents[0])
	assert.Equal(t, domain.Metadata{Title: "Mining", Source: "mining.md"}, res.Metadatas[0])
}

func TestCollection_QueryEmptyCollection(t *testing.T) {
	s, _ := newTestStore(t, &fakeEmbedder{})
	ctx := context.Background()
	c, _, err := s.Open(ctx, "docs")
	require.NoError(t, err)

	res, err := c.Query(ctx, "anything", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
}

func TestCollection_QueryKLargerThanCount(t *testing.T) {
	s, _ := newTestStore(t, &fakeEmbedder{})
	ctx := context.Background()
	c, _, err := s.Open(ctx, "docs")
	require.NoError(t, err)

	require.NoError(t, c.InsertBatch(ctx,
		[]string{"0-0", "0-1"},
		[]string{"one", "two"},
		[]domain.Metadata{{}, {}}))

	res, err := c.Query(ctx, "one", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Len())
}

func TestCollection_QueryEmbedderFailureIsNotEmptyResult(t *testing.T) {
	s, _ := newTestStore(t, &fakeEmbedder{embedErr: errors.New("provider unreachable")})
	ctx := context.Background()
	c, _, err := s.Open(ctx, "docs")
	require.NoError(t, err)

	res, err := c.Query(ctx, "anything", 5)
	require.Error(t, err)
	assert.Nil(t, res)
}

func TestCollection_PersistsAcrossReopen(t *testing.T) {
	emb := &fakeEmbedder{}
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := NewStore(path, emb)
	require.NoError(t, err)
	ctx := context.Background()
	c, _, err := s.Open(ctx, "docs")
	require.NoError(t, err)
	require.NoError(t, c.InsertBatch(ctx,
		[]string{"0-0"}, []string{"persisted chunk"},
		[]domain.Metadata{{Title: "T", Source: "t.md"}}))
	require.NoError(t, s.Close())

	s2, err := NewStore(path, emb)
	require.NoError(t, err)
	defer s2.Close()
	c2, created, err := s2.Open(ctx, "docs")
	require.NoError(t, err)
	assert.False(t, created)

	n, err := c2.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err := c2.Query(ctx, "anything", 1)
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())
	assert.Equal(t, "persisted chunk", res.Documents[0])
}

func TestCollection_ManifestRoundTrip(t *testing.T) {
	s, _ := newTestStore(t, &fakeEmbedder{})
	ctx := context.Background()
	c, _, err := s.Open(ctx, "docs")
	require.NoError(t, err)

	m, err := c.Manifest(ctx)
	require.NoError(t, err)
	assert.Nil(t, m)

	want := domain.Manifest{
		CorpusHash:    "abc123",
		DocumentCount: 2,
		ChunkCount:    7,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, c.WriteManifest(ctx, want))

	got, err := c.Manifest(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.CorpusHash, got.CorpusHash)
	assert.Equal(t, want.DocumentCount, got.DocumentCount)
	assert.Equal(t, want.ChunkCount, got.ChunkCount)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}

func TestFloat32BlobRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.75, 0}
	out := bytesToFloat32Slice(float32SliceToBytes(in))
	assert.Equal(t, in, out)
}
