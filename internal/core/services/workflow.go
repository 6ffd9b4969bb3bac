package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/veritus-labs/scholia/internal/core/domain"
	"github.com/veritus-labs/scholia/internal/core/ports/driving"
	"github.com/veritus-labs/scholia/internal/logger"
)

// Ensure WorkflowService implements the interface.
var _ driving.ResearchService = (*WorkflowService)(nil)

// workflow is one probe/expand/re-probe instance. Each incoming query gets
// its own workflow; no global lock serialises unrelated queries.
type workflow struct {
	mu sync.Mutex

	id     string
	query  string
	filter domain.QueryFilter
	state  domain.WorkflowState

	// result is the most recent retrieval result.
	result *domain.RetrievalResult

	// indexedCount is how many candidates reached Indexed during expansion.
	indexedCount int
}

// transition moves the workflow to next, or fails if the step is illegal.
// Callers hold w.mu.
func (w *workflow) transition(next domain.WorkflowState) error {
	if !w.state.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, w.state, next)
	}
	logger.Debug("Workflow %s: %s -> %s", w.id, w.state, next)
	w.state = next
	return nil
}

// WorkflowService sequences the retrieval engine and the expansion
// controller into the probe -> expand -> re-probe workflow and exposes it to
// callers.
type WorkflowService struct {
	retrieval *RetrievalEngine
	expansion *ExpansionController

	mu        sync.RWMutex
	workflows map[string]*workflow
}

// NewWorkflowService creates a workflow service.
func NewWorkflowService(retrieval *RetrievalEngine, expansion *ExpansionController) *WorkflowService {
	return &WorkflowService{
		retrieval: retrieval,
		expansion: expansion,
		workflows: make(map[string]*workflow),
	}
}

// Probe starts a new workflow and runs the initial retrieval. A sufficient
// result answers the workflow; an insufficient one parks it awaiting
// expansion consent.
func (s *WorkflowService) Probe(
	ctx context.Context, query string, filter domain.QueryFilter,
) (string, *domain.RetrievalResult, error) {
	w := &workflow{
		id:     uuid.New().String(),
		query:  query,
		filter: filter,
		state:  domain.WorkflowIdle,
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.transition(domain.WorkflowProbing); err != nil {
		return "", nil, err
	}

	result, err := s.retrieval.Probe(ctx, query, filter)
	if err != nil {
		return "", nil, err
	}
	w.result = result

	next := domain.WorkflowAnswered
	if result.Insufficient {
		next = domain.WorkflowAwaitingConsent
	}
	if err := w.transition(next); err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	s.workflows[w.id] = w
	s.mu.Unlock()

	return w.id, result, nil
}

// RequestExpansion searches the external source for candidates. It is only
// legal while the workflow awaits consent, and it indexes nothing: the
// caller decides which candidates to apply.
func (s *WorkflowService) RequestExpansion(
	ctx context.Context, workflowID string, maxResults int,
) ([]domain.CandidateRecord, error) {
	w, err := s.get(workflowID)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.state != domain.WorkflowAwaitingConsent {
		state := w.state
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot search in state %s", domain.ErrInvalidTransition, state)
	}
	query, filter := w.query, w.filter
	w.mu.Unlock()

	return s.expansion.Search(ctx, query, filter, maxResults)
}

// ApplyExpansion is the consent step: it fetches, stores, and indexes the
// selected candidates and moves the workflow to ReProbing regardless of how
// many candidates succeeded, so the re-probe can report honestly.
func (s *WorkflowService) ApplyExpansion(
	ctx context.Context, workflowID string, selected []domain.CandidateRecord,
) ([]domain.CandidateOutcome, error) {
	w, err := s.get(workflowID)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if err := w.transition(domain.WorkflowExpanding); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.mu.Unlock()

	outcomes, err := s.expansion.Apply(ctx, selected)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		// The controller itself failed; outcomes still carry per-candidate
		// states. The workflow proceeds to re-probe against whatever was
		// indexed before the failure.
		logger.Warn("Workflow %s: expansion error: %v", workflowID, err)
	}

	w.indexedCount = 0
	for _, o := range outcomes {
		if o.Status == domain.CandidateIndexed {
			w.indexedCount++
		}
	}

	if terr := w.transition(domain.WorkflowReProbing); terr != nil {
		return outcomes, terr
	}
	return outcomes, err
}

// Reprobe re-runs the original query against the (possibly expanded) index
// and answers the workflow. When expansion indexed nothing the probe runs
// against an unchanged index, so the original insufficiency flag is
// naturally preserved rather than silently claiming success.
func (s *WorkflowService) Reprobe(ctx context.Context, workflowID string) (*domain.RetrievalResult, error) {
	w, err := s.get(workflowID)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != domain.WorkflowReProbing {
		return nil, fmt.Errorf("%w: cannot reprobe in state %s", domain.ErrInvalidTransition, w.state)
	}

	if w.indexedCount == 0 {
		logger.Info("Workflow %s: expansion indexed nothing, re-probing unchanged index", workflowID)
	}

	result, err := s.retrieval.Probe(ctx, w.query, w.filter)
	if err != nil {
		return nil, err
	}
	w.result = result

	if terr := w.transition(domain.WorkflowAnswered); terr != nil {
		return nil, terr
	}
	return result, nil
}

// DeclineExpansion withholds consent: the workflow terminates with the
// original result, explicitly marked ungrounded so the caller can present
// it as a fallback rather than an index-supported answer.
func (s *WorkflowService) DeclineExpansion(
	_ context.Context, workflowID string,
) (*domain.RetrievalResult, error) {
	w, err := s.get(workflowID)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.transition(domain.WorkflowAnswered); err != nil {
		return nil, err
	}

	fallback := *w.result
	fallback.Grounded = false
	w.result = &fallback
	return &fallback, nil
}

// State returns the current state of a workflow.
func (s *WorkflowService) State(_ context.Context, workflowID string) (domain.WorkflowState, error) {
	w, err := s.get(workflowID)
	if err != nil {
		return "", err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state, nil
}

// get looks up a workflow by ID.
func (s *WorkflowService) get(id string) (*workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workflows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrWorkflowNotFound, id)
	}
	return w, nil
}
