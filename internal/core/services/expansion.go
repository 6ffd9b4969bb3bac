package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/veritus-labs/scholia/internal/core/domain"
	"github.com/veritus-labs/scholia/internal/core/ports/driven"
	"github.com/veritus-labs/scholia/internal/logger"
	"github.com/veritus-labs/scholia/internal/retry"
)

// DefaultExpansionWorkers bounds how many candidates are processed at once.
const DefaultExpansionWorkers = 3

// ExpansionController orchestrates corpus expansion: external search,
// per-candidate fetch, store, ingest, and index update. It never triggers an
// external search unprompted; the workflow invokes it only after consent.
type ExpansionController struct {
	source   driven.PaperSource
	store    driven.PaperStore
	pipeline *IngestPipeline
	index    driven.VectorIndex
	retryCfg retry.Config
	workers  int
}

// NewExpansionController creates an expansion controller.
func NewExpansionController(
	source driven.PaperSource,
	store driven.PaperStore,
	pipeline *IngestPipeline,
	index driven.VectorIndex,
	retryCfg retry.Config,
) *ExpansionController {
	return &ExpansionController{
		source:   source,
		store:    store,
		pipeline: pipeline,
		index:    index,
		retryCfg: retryCfg,
		workers:  DefaultExpansionWorkers,
	}
}

// Search queries the external paper source. Result ordering is whatever the
// source returned; no re-ranking is applied. Search is not retried.
func (c *ExpansionController) Search(
	ctx context.Context, query string, filter domain.QueryFilter, maxResults int,
) ([]domain.CandidateRecord, error) {
	if c.source == nil {
		return nil, fmt.Errorf("search: paper source not configured")
	}
	candidates, err := c.source.Search(ctx, query, filter, maxResults)
	if err != nil {
		return nil, fmt.Errorf("search paper source: %w", err)
	}
	logger.Info("External search returned %d candidates for %q", len(candidates), query)
	return candidates, nil
}

// Apply processes the selected candidates with bounded parallelism and
// returns one outcome per candidate, in input order. A failure for one
// candidate never aborts the others. When the caller's context is cancelled,
// candidates not yet started are dropped (reported as FetchFailed with the
// cancellation cause), while started candidates run to completion on a
// detached context so the index never sees partial writes.
func (c *ExpansionController) Apply(
	ctx context.Context, selected []domain.CandidateRecord,
) ([]domain.CandidateOutcome, error) {
	outcomes := make([]domain.CandidateOutcome, len(selected))

	sem := make(chan struct{}, c.workers)
	var wg sync.WaitGroup

	for i := range selected {
		if err := ctx.Err(); err != nil {
			outcomes[i] = domain.CandidateOutcome{
				Candidate: selected[i],
				Status:    domain.CandidateFetchFailed,
				Err:       fmt.Errorf("%w: %w", domain.ErrFetchFailed, err),
			}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = c.processCandidate(ctx, selected[i])
		}(i)
	}

	wg.Wait()

	indexed := 0
	for _, o := range outcomes {
		if o.Status == domain.CandidateIndexed {
			indexed++
		}
	}
	logger.Info("Expansion applied: %d/%d candidates indexed", indexed, len(selected))

	return outcomes, nil
}

// processCandidate walks one candidate through the state machine:
// Selected -> Fetching -> {Stored|DuplicateSkipped|FetchFailed}
// -> Ingesting -> {Indexed|IngestFailed}.
func (c *ExpansionController) processCandidate(
	ctx context.Context, cand domain.CandidateRecord,
) domain.CandidateOutcome {
	outcome := domain.CandidateOutcome{Candidate: cand, Status: domain.CandidateSelected}

	logger.Debug("Candidate %q: fetching %s", cand.Title, cand.FetchURL)
	outcome.Status = domain.CandidateFetching

	data, err := retry.DoWithResult(ctx, c.retryCfg, func() ([]byte, error) {
		return c.source.Fetch(ctx, cand.FetchURL)
	})
	if err != nil {
		outcome.Status = domain.CandidateFetchFailed
		outcome.Err = fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
		logger.Warn("Candidate %q: fetch failed: %v", cand.Title, err)
		return outcome
	}

	// The candidate is in flight: storing and indexing finish even if the
	// caller abandons the workflow, so queries never observe a torn chunk.
	ictx := context.WithoutCancel(ctx)

	doc, stored, err := c.store.Store(ictx, cand.Key(), cand.FetchURL, data)
	if err != nil {
		outcome.Status = domain.CandidateIngestFailed
		outcome.Err = fmt.Errorf("%w: store: %w", domain.ErrIngestFailed, err)
		logger.Warn("Candidate %q: store failed: %v", cand.Title, err)
		return outcome
	}
	if !stored {
		outcome.Status = domain.CandidateDuplicateSkipped
		logger.Info("Candidate %q: duplicate, skipped", cand.Title)
		return outcome
	}
	outcome.Status = domain.CandidateStored

	logger.Debug("Candidate %q: ingesting %s", cand.Title, doc.Path)
	outcome.Status = domain.CandidateIngesting

	chunks, err := c.pipeline.Ingest(ictx, doc, data)
	if err != nil {
		outcome.Status = domain.CandidateIngestFailed
		outcome.Err = err
		logger.Warn("Candidate %q: ingest failed: %v", cand.Title, err)
		return outcome
	}

	if err := c.index.Upsert(ictx, chunks); err != nil {
		outcome.Status = domain.CandidateIngestFailed
		outcome.Err = fmt.Errorf("%w: upsert: %w", domain.ErrIngestFailed, err)
		logger.Warn("Candidate %q: index upsert failed: %v", cand.Title, err)
		return outcome
	}

	outcome.Status = domain.CandidateIndexed
	outcome.ChunksIndexed = len(chunks)
	logger.Info("Candidate %q: indexed %d chunks", cand.Title, len(chunks))
	return outcome
}
