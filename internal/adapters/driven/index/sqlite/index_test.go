package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritus-labs/scholia/internal/core/domain"
)

func chunk(hash string, seq int, subject, topic string, year int, embedding []float32) domain.Chunk {
	return domain.Chunk{
		DocumentHash: hash,
		Seq:          seq,
		Text:         "chunk text",
		Page:         1,
		Embedding:    embedding,
		Key:          domain.PaperKey{Subject: subject, Topic: topic, Title: "Paper " + hash, Year: year},
	}
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestUpsertAndQuery(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	err := idx.Upsert(ctx, []domain.Chunk{
		chunk("doc1", 0, "cs", "ml", 2020, []float32{1, 0}),
		chunk("doc1", 1, "cs", "ml", 2020, []float32{0, 1}),
	})
	require.NoError(t, err)

	hits, err := idx.Query(ctx, []float32{1, 0}, domain.QueryFilter{}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, 0, hits[0].Chunk.Seq)
	assert.InDelta(t, 1.0, hits[0].Similarity, 0.0001)
	assert.InDelta(t, 0.0, hits[1].Similarity, 0.0001)
}

func TestUpsertIsIdempotent(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	c := chunk("doc1", 0, "cs", "ml", 2020, []float32{1, 0})
	require.NoError(t, idx.Upsert(ctx, []domain.Chunk{c}))
	require.NoError(t, idx.Upsert(ctx, []domain.Chunk{c}))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestQueryHonoursFilter(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	year := 2021
	require.NoError(t, idx.Upsert(ctx, []domain.Chunk{
		chunk("doc1", 0, "cs", "ml", 2020, []float32{1, 0}),
		chunk("doc2", 0, "cs", "nlp", 2021, []float32{1, 0}),
		chunk("doc3", 0, "physics", "qft", 2021, []float32{1, 0}),
	}))

	hits, err := idx.Query(ctx, []float32{1, 0}, domain.QueryFilter{Subject: "cs", Year: &year}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc2", hits[0].Chunk.DocumentHash)
}

func TestQueryTieBreaksOnInsertionOrder(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	// Identical embeddings: similarity ties across all three.
	require.NoError(t, idx.Upsert(ctx, []domain.Chunk{chunk("first", 0, "cs", "ml", 2020, []float32{1, 1})}))
	require.NoError(t, idx.Upsert(ctx, []domain.Chunk{chunk("second", 0, "cs", "ml", 2020, []float32{1, 1})}))
	require.NoError(t, idx.Upsert(ctx, []domain.Chunk{chunk("third", 0, "cs", "ml", 2020, []float32{1, 1})}))

	for range 3 {
		hits, err := idx.Query(ctx, []float32{1, 1}, domain.QueryFilter{}, 10)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, "first", hits[0].Chunk.DocumentHash)
		assert.Equal(t, "second", hits[1].Chunk.DocumentHash)
		assert.Equal(t, "third", hits[2].Chunk.DocumentHash)
	}
}

func TestQueryRespectsK(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	var chunks []domain.Chunk
	for i := range 5 {
		chunks = append(chunks, chunk("doc1", i, "cs", "ml", 2020, []float32{1, 0}))
	}
	require.NoError(t, idx.Upsert(ctx, chunks))

	hits, err := idx.Query(ctx, []float32{1, 0}, domain.QueryFilter{}, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestContains(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []domain.Chunk{chunk("doc1", 0, "cs", "ml", 2020, []float32{1, 0})}))

	have, err := idx.Contains(ctx, "doc1")
	require.NoError(t, err)
	assert.True(t, have)

	have, err = idx.Contains(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, have)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := NewIndex(dir)
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, []domain.Chunk{chunk("doc1", 0, "cs", "ml", 2020, []float32{0.5, 0.5})}))
	require.NoError(t, idx.Close())

	idx, err = NewIndex(dir)
	require.NoError(t, err)
	defer idx.Close()

	hits, err := idx.Query(ctx, []float32{0.5, 0.5}, domain.QueryFilter{}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc1", hits[0].Chunk.DocumentHash)
	assert.Equal(t, []float32{0.5, 0.5}, hits[0].Chunk.Embedding)
}

func TestEmbeddingRoundtrip(t *testing.T) {
	original := []float32{1.5, -2.25, 0, 3.14159}
	assert.Equal(t, original, bytesToFloat32Slice(float32SliceToBytes(original)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
