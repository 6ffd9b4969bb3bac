package driven

import (
	"context"

	"github.com/veritus-labs/scholia/internal/core/domain"
)

// VectorIndex provides filtered semantic similarity search over chunks.
// The index is the one shared mutable resource in the system: upsert is
// atomic per chunk identity, and a chunk becomes visible to queries only
// once its full record is committed.
type VectorIndex interface {
	// Upsert inserts or replaces chunks keyed by (document hash, seq).
	// Re-submitting identical chunks never duplicates index entries.
	Upsert(ctx context.Context, chunks []domain.Chunk) error

	// Query returns up to k chunks matching the filter, ordered by
	// descending similarity to the query vector. Ties break by insertion
	// order (earlier-ingested chunk wins). Filtered-out chunks never
	// appear regardless of similarity.
	Query(ctx context.Context, embedding []float32, filter domain.QueryFilter, k int) ([]VectorHit, error)

	// Contains reports whether any chunk of the document hash is indexed.
	Contains(ctx context.Context, documentHash string) (bool, error)

	// Count returns the number of indexed chunks.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// Chunk is the matched chunk, fully hydrated.
	Chunk domain.Chunk

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
