package services

import (
	"context"
	"fmt"

	"github.com/veritus-labs/scholia/internal/chunker"
	"github.com/veritus-labs/scholia/internal/core/domain"
	"github.com/veritus-labs/scholia/internal/core/ports/driven"
	"github.com/veritus-labs/scholia/internal/logger"
	"github.com/veritus-labs/scholia/internal/retry"
)

// DefaultEmbedBatchSize bounds how many chunk texts go to the embedding
// service per request, to stay under provider token limits.
const DefaultEmbedBatchSize = 64

// IngestPipeline turns a stored document's bytes into embedded chunks:
// extract pages, split into overlapping windows, embed with bounded retry.
// Ingestion is not all-or-nothing: a batch whose embedding fails after the
// retry cap is dropped and logged, and the surviving chunks are returned so
// the index still benefits from them.
type IngestPipeline struct {
	extractor driven.TextExtractor
	chunker   *chunker.Chunker
	embedder  driven.EmbeddingService
	retryCfg  retry.Config
	batchSize int
}

// NewIngestPipeline creates an ingest pipeline.
func NewIngestPipeline(
	extractor driven.TextExtractor,
	ch *chunker.Chunker,
	embedder driven.EmbeddingService,
	retryCfg retry.Config,
) *IngestPipeline {
	if ch == nil {
		ch = chunker.New()
	}
	return &IngestPipeline{
		extractor: extractor,
		chunker:   ch,
		embedder:  embedder,
		retryCfg:  retryCfg,
		batchSize: DefaultEmbedBatchSize,
	}
}

// Ingest produces embedded chunks for a document. Returns ErrIngestFailed
// when extraction fails or no chunk could be embedded at all.
func (p *IngestPipeline) Ingest(
	ctx context.Context, doc *domain.Document, data []byte,
) ([]domain.Chunk, error) {
	if p.embedder == nil {
		return nil, fmt.Errorf("ingest %q: %w", doc.Key.Title, domain.ErrEmbeddingUnavailable)
	}

	pages, err := p.extractor.Extract(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: extract %q: %w", domain.ErrIngestFailed, doc.Key.Title, err)
	}

	chunks := p.chunker.Split(doc, pages)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %q produced no text", domain.ErrIngestFailed, doc.Key.Title)
	}
	logger.Debug("Chunked %q into %d chunks across %d pages", doc.Key.Title, len(chunks), len(pages))

	embedded := make([]domain.Chunk, 0, len(chunks))
	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := retry.DoWithResult(ctx, p.retryCfg, func() ([][]float32, error) {
			return p.embedder.EmbedBatch(ctx, texts)
		})
		if err != nil {
			// Partial ingestion is acceptable but must be visible.
			logger.Error("Embedding failed for chunks %d-%d of %q: %v",
				batch[0].Seq, batch[len(batch)-1].Seq, doc.Key.Title, err)
			continue
		}
		if len(vectors) != len(batch) {
			logger.Error("Embedding count mismatch for %q: got %d, want %d",
				doc.Key.Title, len(vectors), len(batch))
			continue
		}

		for i := range batch {
			batch[i].Embedding = vectors[i]
			embedded = append(embedded, batch[i])
		}
	}

	if len(embedded) == 0 {
		return nil, fmt.Errorf("%w: no chunk of %q could be embedded", domain.ErrIngestFailed, doc.Key.Title)
	}
	if len(embedded) < len(chunks) {
		logger.Warn("Partial ingestion of %q: %d/%d chunks embedded", doc.Key.Title, len(embedded), len(chunks))
	}

	return embedded, nil
}
