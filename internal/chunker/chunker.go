// Package chunker splits extracted paper pages into overlapping text windows.
package chunker

import (
	"github.com/veritus-labs/scholia/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 250

// Chunker splits document pages into fixed-size overlapping chunks.
// Chunk sequence indices are monotonic across the whole document, so the
// same content always produces the same (hash, seq) identities.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Split chunks the pages of a document. Each chunk carries the document's
// content hash, its sequence index, the page it starts on, and the paper's
// provenance key. Embeddings are left empty for the ingest pipeline to fill.
func (c *Chunker) Split(doc *domain.Document, pages []domain.Page) []domain.Chunk {
	var chunks []domain.Chunk
	seq := 0

	for _, page := range pages {
		content := []rune(page.Text)
		contentLen := len(content)
		if contentLen == 0 {
			continue
		}

		start := 0
		for start < contentLen {
			end := start + c.chunkSize
			if end > contentLen {
				end = contentLen
			}

			chunks = append(chunks, domain.Chunk{
				DocumentHash: doc.ContentHash,
				Seq:          seq,
				Text:         string(content[start:end]),
				Page:         page.Number,
				Key:          doc.Key,
			})
			seq++

			if end == contentLen {
				break
			}
			// Move start forward by (chunkSize - overlap)
			start += c.chunkSize - c.overlap
		}
	}

	return chunks
}
