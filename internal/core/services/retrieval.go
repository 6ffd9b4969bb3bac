package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/veritus-labs/scholia/internal/core/domain"
	"github.com/veritus-labs/scholia/internal/core/ports/driven"
	"github.com/veritus-labs/scholia/internal/logger"
)

// Default thresholds. Both are configuration; these are only fallbacks.
const (
	// DefaultMinRelevance is the similarity a chunk must reach to count
	// towards confidence and appear as a source.
	DefaultMinRelevance = 0.25

	// DefaultSufficiencyThreshold is the confidence below which a result
	// is judged insufficient.
	DefaultSufficiencyThreshold = 0.40
)

// RetrievalConfig holds the tunable constants of the retrieval engine.
type RetrievalConfig struct {
	// MinRelevance is the minimum similarity for a chunk to be used.
	MinRelevance float64

	// SufficiencyThreshold is the confidence cut-off for sufficiency.
	SufficiencyThreshold float64
}

// RetrievalEngine answers queries from the vector index. It owns no
// persistent state: a probe is a pure function of index contents plus query.
type RetrievalEngine struct {
	index     driven.VectorIndex
	embedder  driven.EmbeddingService
	generator driven.GenerationService
	cfg       RetrievalConfig
}

// NewRetrievalEngine creates a retrieval engine.
func NewRetrievalEngine(
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	generator driven.GenerationService,
	cfg RetrievalConfig,
) *RetrievalEngine {
	if cfg.MinRelevance <= 0 {
		cfg.MinRelevance = DefaultMinRelevance
	}
	if cfg.SufficiencyThreshold <= 0 {
		cfg.SufficiencyThreshold = DefaultSufficiencyThreshold
	}
	return &RetrievalEngine{
		index:     index,
		embedder:  embedder,
		generator: generator,
		cfg:       cfg,
	}
}

// Probe embeds the query, retrieves the top-k filtered chunks, and
// synthesises a grounded answer. Sufficiency is computed here, once, and
// exposed as the explicit Insufficient field: a result is insufficient iff
// confidence is below the threshold, the source list is empty, or the
// generation service failed. Generation is never retried.
func (e *RetrievalEngine) Probe(
	ctx context.Context, query string, filter domain.QueryFilter,
) (*domain.RetrievalResult, error) {
	logger.Section("Probe")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("probe: %w: empty query", domain.ErrInvalidInput)
	}
	if e.embedder == nil {
		return nil, fmt.Errorf("probe: %w", domain.ErrEmbeddingUnavailable)
	}
	if e.generator == nil {
		return nil, fmt.Errorf("probe: %w", domain.ErrGenerationUnavailable)
	}

	embedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Query embedding: %d dimensions", len(embedding))

	k := filter.Limit()
	hits, err := e.index.Query(ctx, embedding, filter, k)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	logger.Debug("Index hits: %d (k=%d)", len(hits), k)

	// Keep only chunks above the minimum-relevance threshold.
	var passing []driven.VectorHit
	for _, hit := range hits {
		if hit.Similarity >= e.cfg.MinRelevance {
			passing = append(passing, hit)
		}
	}
	logger.Debug("Passing threshold %.2f: %d chunks", e.cfg.MinRelevance, len(passing))

	result := &domain.RetrievalResult{
		Grounded: true,
		Filter:   filter,
	}

	if len(passing) == 0 {
		// Zero passing chunks: confidence is defined as 0, sources empty.
		result.Confidence = 0
		result.Insufficient = true
		logger.Info("Probe insufficient: no chunk passed the relevance threshold")
		return result, nil
	}

	result.Confidence = e.confidence(passing)
	result.Sources = sourceRefs(passing)

	chunks := make([]domain.Chunk, len(passing))
	for i, hit := range passing {
		chunks[i] = hit.Chunk
	}

	answer, genErr := e.generator.Generate(ctx, query, chunks)
	if genErr != nil {
		// A failed or timed-out generation surfaces as insufficiency.
		logger.Warn("Generation failed: %v", genErr)
		result.Insufficient = true
		return result, nil
	}
	result.Answer = answer

	result.Insufficient = result.Confidence < e.cfg.SufficiencyThreshold || len(result.Sources) == 0
	logger.Info("Probe complete: confidence=%.2f insufficient=%t sources=%d",
		result.Confidence, result.Insufficient, len(result.Sources))

	return result, nil
}

// Insufficient applies the sufficiency predicate to an existing result.
// Exposed so callers branch on one documented rule instead of inferring
// sufficiency from free text.
func (e *RetrievalEngine) Insufficient(result *domain.RetrievalResult) bool {
	return result == nil || result.Insufficient
}

// confidence is the mean similarity of the chunks that passed the
// minimum-relevance threshold. It is monotonic in the retrieved similarity
// scores, and zero exactly when no chunk passed.
func (e *RetrievalEngine) confidence(passing []driven.VectorHit) float64 {
	if len(passing) == 0 {
		return 0
	}
	var sum float64
	for _, hit := range passing {
		sum += hit.Similarity
	}
	conf := sum / float64(len(passing))
	if conf > 1 {
		conf = 1
	}
	if conf < 0 {
		conf = 0
	}
	return conf
}

// sourceRefs builds source references from hits, preserving retrieval order.
func sourceRefs(hits []driven.VectorHit) []domain.SourceRef {
	refs := make([]domain.SourceRef, len(hits))
	for i, hit := range hits {
		refs[i] = domain.SourceRef{
			Title:   hit.Chunk.Key.Title,
			Year:    hit.Chunk.Key.Year,
			Topic:   hit.Chunk.Key.Topic,
			Subject: hit.Chunk.Key.Subject,
			Page:    hit.Chunk.Page,
		}
	}
	return refs
}
