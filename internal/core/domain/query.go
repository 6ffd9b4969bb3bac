package domain

// DefaultK is the number of chunks retrieved when the caller does not say.
const DefaultK = 10

// QueryFilter narrows retrieval to a subset of chunks.
// Nil/empty fields are not applied.
type QueryFilter struct {
	// Subject filters to an exact subject, if non-empty.
	Subject string

	// Topic filters to an exact topic, if non-empty.
	Topic string

	// Year filters to an exact publication year, if non-nil.
	Year *int

	// K is the maximum number of chunks to retrieve (default DefaultK).
	K int
}

// Matches reports whether a chunk satisfies every supplied predicate.
func (f QueryFilter) Matches(c Chunk) bool {
	if f.Subject != "" && c.Key.Subject != f.Subject {
		return false
	}
	if f.Topic != "" && c.Key.Topic != f.Topic {
		return false
	}
	if f.Year != nil && c.Key.Year != *f.Year {
		return false
	}
	return true
}

// Limit returns the effective k.
func (f QueryFilter) Limit() int {
	if f.K <= 0 {
		return DefaultK
	}
	return f.K
}

// SourceRef identifies the origin of a retrieved chunk in a result.
type SourceRef struct {
	// Title is the paper title.
	Title string

	// Year is the publication year.
	Year int

	// Topic is the topic area.
	Topic string

	// Subject is the subject area.
	Subject string

	// Page is the 1-based page number.
	Page int
}

// RetrievalResult is the outcome of a probe against the index.
// It is ephemeral: recomputed per query, never persisted.
type RetrievalResult struct {
	// Answer is the generated answer grounded in the retrieved chunks.
	Answer string

	// Sources lists the origin of each chunk used, in retrieval order.
	Sources []SourceRef

	// Confidence is the sufficiency signal in [0,1]. Zero when no chunk
	// passed the minimum-relevance threshold.
	Confidence float64

	// Insufficient is true iff confidence fell below the sufficiency
	// threshold, the source list is empty, or generation failed.
	// Callers branch on this field, never on answer text.
	Insufficient bool

	// Grounded is false when the answer was produced without index support,
	// e.g. a fallback after expansion consent was withheld.
	Grounded bool

	// Filter echoes the filters applied to the retrieval.
	Filter QueryFilter
}
