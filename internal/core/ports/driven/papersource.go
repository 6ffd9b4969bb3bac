package driven

import (
	"context"

	"github.com/veritus-labs/scholia/internal/core/domain"
)

// PaperSource is the external paper catalogue (e.g. arXiv).
// Search ordering is source-defined and must be deterministic for identical
// queries; the core imposes no re-ranking.
type PaperSource interface {
	// Search returns candidate records for a query. Subject and topic from
	// the filter refine the query and are stamped onto the results.
	Search(ctx context.Context, query string, filter domain.QueryFilter, maxResults int) ([]domain.CandidateRecord, error)

	// Fetch downloads the raw bytes of a paper.
	Fetch(ctx context.Context, url string) ([]byte, error)
}
