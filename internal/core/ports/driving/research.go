package driving

import (
	"context"

	"github.com/veritus-labs/scholia/internal/core/domain"
)

// ResearchService is the caller-facing workflow API. One workflow instance
// exists per query; unrelated workflows never serialise on each other.
type ResearchService interface {
	// Probe starts a workflow: it queries the index and returns the result
	// together with the workflow ID. When the result is insufficient the
	// workflow parks in AwaitingExpansionConsent; otherwise it is Answered.
	Probe(ctx context.Context, query string, filter domain.QueryFilter) (string, *domain.RetrievalResult, error)

	// RequestExpansion searches the external source for candidates.
	// It never fetches or indexes anything; consent to expansion is given
	// by a later ApplyExpansion call.
	RequestExpansion(ctx context.Context, workflowID string, maxResults int) ([]domain.CandidateRecord, error)

	// ApplyExpansion fetches, stores, and indexes the selected candidates,
	// returning one outcome per candidate.
	ApplyExpansion(ctx context.Context, workflowID string, selected []domain.CandidateRecord) ([]domain.CandidateOutcome, error)

	// Reprobe re-runs the original query after expansion. If expansion
	// indexed nothing the re-probe still runs and the original
	// insufficiency flag is preserved.
	Reprobe(ctx context.Context, workflowID string) (*domain.RetrievalResult, error)

	// DeclineExpansion withholds consent and terminates the workflow with
	// an explicitly ungrounded fallback result.
	DeclineExpansion(ctx context.Context, workflowID string) (*domain.RetrievalResult, error)

	// State returns the current workflow state.
	State(ctx context.Context, workflowID string) (domain.WorkflowState, error)
}
