package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritus-labs/scholia/internal/core/domain"
	"github.com/veritus-labs/scholia/internal/core/ports/driven"
)

// newWorkflowService wires a workflow service whose retrieval hits come from
// the given index mock.
func newWorkflowService(index *mockIndex, source *mockSource) *WorkflowService {
	engine := NewRetrievalEngine(index, &mockEmbedder{vector: []float32{1, 0}},
		&mockGenerator{answer: "an answer"}, RetrievalConfig{})
	pipeline := NewIngestPipeline(&mockExtractor{}, nil, &mockEmbedder{vector: []float32{1, 0}}, fastRetry())
	ctrl := NewExpansionController(source, &mockPaperStore{}, pipeline, index, fastRetry())
	return NewWorkflowService(engine, ctrl)
}

func TestWorkflowSufficientProbeAnswersImmediately(t *testing.T) {
	index := &mockIndex{hits: []driven.VectorHit{hit("Strong Paper", 1, 0.85)}}
	source := &mockSource{}
	svc := newWorkflowService(index, source)

	id, result, err := svc.Probe(context.Background(), "well covered question", domain.QueryFilter{})
	require.NoError(t, err)
	assert.False(t, result.Insufficient)

	state, err := svc.State(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowAnswered, state)
	assert.Zero(t, source.searches, "a sufficient probe never reaches the external source")
}

func TestWorkflowInsufficientProbeAwaitsConsent(t *testing.T) {
	svc := newWorkflowService(&mockIndex{}, &mockSource{})

	id, result, err := svc.Probe(context.Background(), "uncovered question", domain.QueryFilter{})
	require.NoError(t, err)
	assert.True(t, result.Insufficient)

	state, err := svc.State(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowAwaitingConsent, state)
}

func TestWorkflowExpandThenReprobe(t *testing.T) {
	// Empty index at first; expansion indexes two papers, and retrieval
	// sees them on the re-probe.
	index := &mockIndex{}
	source := &mockSource{
		candidates: []domain.CandidateRecord{
			candidate("a", "Paper A", "http://src/a.pdf"),
			candidate("b", "Paper B", "http://src/b.pdf"),
		},
		payloads: map[string][]byte{
			"http://src/a.pdf": []byte("paper a body"),
			"http://src/b.pdf": []byte("paper b body"),
		},
	}
	svc := newWorkflowService(index, source)
	ctx := context.Background()

	id, result, err := svc.Probe(ctx, "uncovered question", domain.QueryFilter{})
	require.NoError(t, err)
	require.True(t, result.Insufficient)

	candidates, err := svc.RequestExpansion(ctx, id, 5)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	state, _ := svc.State(ctx, id)
	assert.Equal(t, domain.WorkflowAwaitingConsent, state, "searching does not consume consent")

	outcomes, err := svc.ApplyExpansion(ctx, id, candidates)
	require.NoError(t, err)
	for _, o := range outcomes {
		assert.Equal(t, domain.CandidateIndexed, o.Status)
	}

	state, _ = svc.State(ctx, id)
	assert.Equal(t, domain.WorkflowReProbing, state)

	// Make the re-probe find the new material.
	index.hits = []driven.VectorHit{hit("Paper A", 1, 0.80)}

	final, err := svc.Reprobe(ctx, id)
	require.NoError(t, err)
	assert.False(t, final.Insufficient)
	assert.True(t, final.Grounded)

	state, _ = svc.State(ctx, id)
	assert.Equal(t, domain.WorkflowAnswered, state)
}

func TestWorkflowDeclineExpansionIsUngrounded(t *testing.T) {
	svc := newWorkflowService(&mockIndex{}, &mockSource{})
	ctx := context.Background()

	id, _, err := svc.Probe(ctx, "uncovered question", domain.QueryFilter{})
	require.NoError(t, err)

	result, err := svc.DeclineExpansion(ctx, id)
	require.NoError(t, err)
	assert.False(t, result.Grounded)
	assert.True(t, result.Insufficient)

	state, _ := svc.State(ctx, id)
	assert.Equal(t, domain.WorkflowAnswered, state)
}

func TestWorkflowReprobeAfterEmptyExpansion(t *testing.T) {
	// All candidates fail to fetch; the re-probe runs against the unchanged
	// index, so the answer is still insufficient rather than falsely fixed.
	source := &mockSource{
		candidates: []domain.CandidateRecord{candidate("a", "Paper A", "http://src/a.pdf")},
		payloads:   map[string][]byte{},
	}
	svc := newWorkflowService(&mockIndex{}, source)
	ctx := context.Background()

	id, _, err := svc.Probe(ctx, "uncovered question", domain.QueryFilter{})
	require.NoError(t, err)

	outcomes, err := svc.ApplyExpansion(ctx, id, source.candidates)
	require.NoError(t, err)
	assert.Equal(t, domain.CandidateFetchFailed, outcomes[0].Status)

	final, err := svc.Reprobe(ctx, id)
	require.NoError(t, err)
	assert.True(t, final.Insufficient)
}

func TestWorkflowIllegalTransitions(t *testing.T) {
	index := &mockIndex{hits: []driven.VectorHit{hit("Strong Paper", 1, 0.85)}}
	svc := newWorkflowService(index, &mockSource{})
	ctx := context.Background()

	id, _, err := svc.Probe(ctx, "well covered question", domain.QueryFilter{})
	require.NoError(t, err)

	// The workflow is Answered; every expansion step is now illegal.
	_, err = svc.RequestExpansion(ctx, id, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.ApplyExpansion(ctx, id, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Reprobe(ctx, id)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.DeclineExpansion(ctx, id)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestWorkflowUnknownID(t *testing.T) {
	svc := newWorkflowService(&mockIndex{}, &mockSource{})

	_, err := svc.State(context.Background(), "no-such-workflow")
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)

	_, err = svc.Reprobe(context.Background(), "no-such-workflow")
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
}
