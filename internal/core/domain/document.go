package domain

import (
	"fmt"
	"time"
)

// PaperKey identifies a paper within the corpus.
// Papers are organised on disk as {subject}/{topic}/{title} - {year}.
type PaperKey struct {
	// Subject is the broad area, e.g. "Artificial Intelligence".
	Subject string

	// Topic is the narrower area within the subject, e.g. "Agentic AI".
	Topic string

	// Title is the paper title.
	Title string

	// Year is the publication year. Zero when unknown.
	Year int
}

// Document represents a stored paper with metadata.
// Documents are immutable once stored; re-fetching identical bytes is a no-op.
type Document struct {
	// Key is the (subject, topic, title, year) identity.
	Key PaperKey

	// ContentHash is the hex-encoded SHA-256 of the stored bytes.
	// Unique per stored path.
	ContentHash string

	// SourceURL is where the paper was fetched from.
	SourceURL string

	// Path is the local storage path of the paper file.
	Path string

	// IngestedAt is when the document was stored.
	IngestedAt time.Time
}

// Page is a single page of extracted document text.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the extracted page text.
	Text string
}

// Chunk is the atomic unit of indexing: a bounded text segment of one document.
// Chunk identity is (document content hash, sequence index), so re-ingesting
// identical document content never creates duplicate index entries.
type Chunk struct {
	// DocumentHash is the content hash of the originating Document.
	DocumentHash string

	// Seq is the monotonically increasing sequence index within the document.
	Seq int

	// Text is the chunk content.
	Text string

	// Page is the 1-based page number the chunk starts on.
	Page int

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// Key carries the provenance of the originating Document.
	Key PaperKey
}

// ID returns the deterministic chunk identifier derived from chunk identity.
func (c Chunk) ID() string {
	return fmt.Sprintf("%s:%d", c.DocumentHash, c.Seq)
}
