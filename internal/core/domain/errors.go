package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates the document's content hash already exists
	// under the same (subject, topic) key. Not a failure: callers treat a
	// duplicate as an idempotent no-op.
	ErrDuplicate = errors.New("duplicate document")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFetchFailed indicates the paper bytes could not be retrieved from
	// the external source. Reported per candidate, non-fatal to a batch.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrIngestFailed indicates chunking, embedding or indexing failed for
	// a document. Reported per candidate, non-fatal to a batch.
	ErrIngestFailed = errors.New("ingest failed")

	// ErrIOFailure indicates the storage medium is unwritable.
	// Fatal to the store operation; never retried internally.
	ErrIOFailure = errors.New("storage io failure")

	// ErrExternalTimeout indicates an external service call timed out.
	// Generation timeouts surface as insufficiency; fetch and embed
	// timeouts are retried up to the configured attempt cap.
	ErrExternalTimeout = errors.New("external service timeout")

	// ErrIndexCorrupted indicates the persisted index state is unreadable.
	// Fatal at startup: the operator decides whether to rebuild.
	ErrIndexCorrupted = errors.New("index corrupted")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generation service is not configured.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrInvalidTransition indicates a workflow operation was invoked in a
	// state that does not permit it.
	ErrInvalidTransition = errors.New("invalid workflow transition")

	// ErrWorkflowNotFound indicates the referenced workflow does not exist.
	ErrWorkflowNotFound = errors.New("workflow not found")
)
