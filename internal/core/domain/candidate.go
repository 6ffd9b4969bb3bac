package domain

// CandidateRecord is a paper returned by the external source.
// It is ephemeral: consumed by the expansion controller, never persisted.
type CandidateRecord struct {
	// SourceID is the canonical identifier at the source (e.g. arXiv ID).
	SourceID string

	// Title is the paper title.
	Title string

	// Abstract is the paper abstract, possibly truncated.
	Abstract string

	// Authors lists the paper authors in source order.
	Authors []string

	// Year is the publication year.
	Year int

	// FetchURL is the URL the paper bytes can be fetched from.
	FetchURL string

	// Subject and Topic organise where the paper will be stored.
	Subject string
	Topic   string
}

// Key returns the PaperKey the candidate would be stored under.
func (c CandidateRecord) Key() PaperKey {
	return PaperKey{
		Subject: c.Subject,
		Topic:   c.Topic,
		Title:   c.Title,
		Year:    c.Year,
	}
}

// CandidateStatus tracks a candidate through the expansion pipeline:
// Selected -> Fetching -> {Stored | DuplicateSkipped | FetchFailed}
// -> Ingesting -> {Indexed | IngestFailed}.
type CandidateStatus string

const (
	CandidateSelected         CandidateStatus = "selected"
	CandidateFetching         CandidateStatus = "fetching"
	CandidateStored           CandidateStatus = "stored"
	CandidateDuplicateSkipped CandidateStatus = "duplicate_skipped"
	CandidateFetchFailed      CandidateStatus = "fetch_failed"
	CandidateIngesting        CandidateStatus = "ingesting"
	CandidateIndexed          CandidateStatus = "indexed"
	CandidateIngestFailed     CandidateStatus = "ingest_failed"
)

// Terminal reports whether the status ends the candidate's pipeline.
func (s CandidateStatus) Terminal() bool {
	switch s {
	case CandidateIndexed, CandidateDuplicateSkipped, CandidateFetchFailed, CandidateIngestFailed:
		return true
	}
	return false
}

// CandidateOutcome is the per-candidate result of an expansion batch.
// A failed candidate never aborts the rest of the batch.
type CandidateOutcome struct {
	// Candidate is the record the outcome refers to.
	Candidate CandidateRecord

	// Status is the terminal status reached.
	Status CandidateStatus

	// ChunksIndexed is the number of chunks upserted into the index.
	ChunksIndexed int

	// Err carries the failure for FetchFailed/IngestFailed, nil otherwise.
	Err error
}
