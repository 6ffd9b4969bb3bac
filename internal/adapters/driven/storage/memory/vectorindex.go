package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/veritus-labs/scholia/internal/core/domain"
	"github.com/veritus-labs/scholia/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// entry keeps the insertion rank so equal similarities order stably.
type entry struct {
	chunk domain.Chunk
	rank  int
}

// VectorIndex is an in-memory brute-force implementation of
// driven.VectorIndex. Suitable for tests and small corpora.
type VectorIndex struct {
	mu      sync.RWMutex
	entries map[string]entry
	next    int
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		entries: make(map[string]entry),
	}
}

// Upsert inserts or replaces chunks keyed by chunk identity. Re-upserting
// a chunk keeps its original insertion rank.
func (v *VectorIndex) Upsert(_ context.Context, chunks []domain.Chunk) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, chunk := range chunks {
		id := chunk.ID()
		if prev, ok := v.entries[id]; ok {
			v.entries[id] = entry{chunk: chunk, rank: prev.rank}
			continue
		}
		v.entries[id] = entry{chunk: chunk, rank: v.next}
		v.next++
	}
	return nil
}

// Query returns the k most similar chunks matching the filter, by cosine
// similarity descending. Ties break on insertion order so repeated queries
// over unchanged contents return identical rankings.
func (v *VectorIndex) Query(
	_ context.Context, embedding []float32, filter domain.QueryFilter, k int,
) ([]driven.VectorHit, error) {
	if k <= 0 {
		k = domain.DefaultK
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	type scored struct {
		hit  driven.VectorHit
		rank int
	}
	var matches []scored
	for _, e := range v.entries {
		if !filter.Matches(e.chunk) {
			continue
		}
		matches = append(matches, scored{
			hit:  driven.VectorHit{Chunk: e.chunk, Similarity: cosineSimilarity(embedding, e.chunk.Embedding)},
			rank: e.rank,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].hit.Similarity != matches[j].hit.Similarity {
			return matches[i].hit.Similarity > matches[j].hit.Similarity
		}
		return matches[i].rank < matches[j].rank
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	hits := make([]driven.VectorHit, len(matches))
	for i, m := range matches {
		hits[i] = m.hit
	}
	return hits, nil
}

// Contains reports whether any chunk of the given document is indexed.
func (v *VectorIndex) Contains(_ context.Context, documentHash string) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, e := range v.entries {
		if e.chunk.DocumentHash == documentHash {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of indexed chunks.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries), nil
}

// Close is a no-op for the in-memory index.
func (v *VectorIndex) Close() error {
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched lengths or zero vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
