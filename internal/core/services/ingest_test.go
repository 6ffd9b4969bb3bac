package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritus-labs/scholia/internal/chunker"
	"github.com/veritus-labs/scholia/internal/core/domain"
)

func testDoc() *domain.Document {
	return &domain.Document{
		ContentHash: "hash1",
		Key:         domain.PaperKey{Subject: "cs", Topic: "ml", Title: "T", Year: 2020},
	}
}

func TestIngestProducesEmbeddedChunks(t *testing.T) {
	p := NewIngestPipeline(&mockExtractor{}, nil, &mockEmbedder{vector: []float32{1, 2}}, fastRetry())

	chunks, err := p.Ingest(context.Background(), testDoc(), []byte("document body"))
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "hash1", chunks[0].DocumentHash)
	assert.Equal(t, []float32{1, 2}, chunks[0].Embedding)
	assert.Equal(t, "document body", chunks[0].Text)
}

func TestIngestBatchesEmbedding(t *testing.T) {
	// 3 chunks with batch size 2 means two embedding calls.
	extractor := &mockExtractor{pages: []domain.Page{{Number: 1, Text: "aaaaabbbbbccccc"}}}
	embedder := &mockEmbedder{vector: []float32{1}}
	p := NewIngestPipeline(extractor, chunker.New(chunker.WithChunkSize(5), chunker.WithOverlap(0)), embedder, fastRetry())
	p.batchSize = 2

	chunks, err := p.Ingest(context.Background(), testDoc(), []byte("x"))
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
	require.Len(t, embedder.batches, 2)
	assert.Len(t, embedder.batches[0], 2)
	assert.Len(t, embedder.batches[1], 1)
}

func TestIngestExtractionFailure(t *testing.T) {
	p := NewIngestPipeline(&mockExtractor{err: errors.New("not a pdf")}, nil,
		&mockEmbedder{vector: []float32{1}}, fastRetry())

	_, err := p.Ingest(context.Background(), testDoc(), []byte("garbage"))
	assert.ErrorIs(t, err, domain.ErrIngestFailed)
}

func TestIngestNoTextFails(t *testing.T) {
	extractor := &mockExtractor{pages: []domain.Page{{Number: 1, Text: ""}}}
	p := NewIngestPipeline(extractor, nil, &mockEmbedder{vector: []float32{1}}, fastRetry())

	_, err := p.Ingest(context.Background(), testDoc(), []byte("x"))
	assert.ErrorIs(t, err, domain.ErrIngestFailed)
}

func TestIngestAllEmbeddingsFail(t *testing.T) {
	p := NewIngestPipeline(&mockExtractor{}, nil, &mockEmbedder{err: errors.New("down")}, fastRetry())

	_, err := p.Ingest(context.Background(), testDoc(), []byte("body"))
	assert.ErrorIs(t, err, domain.ErrIngestFailed)
}

func TestIngestWithoutEmbedder(t *testing.T) {
	p := NewIngestPipeline(&mockExtractor{}, nil, nil, fastRetry())

	_, err := p.Ingest(context.Background(), testDoc(), []byte("body"))
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}
