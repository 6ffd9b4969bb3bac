package driven

import (
	"context"

	"github.com/veritus-labs/scholia/internal/core/domain"
)

// PaperStore persists fetched papers on disk under a configurable root,
// organised as {subject}/{topic}/{title} - {year}.
// Storing is idempotent: identical bytes under the same (subject, topic)
// key are skipped.
type PaperStore interface {
	// Store persists the bytes for a paper. stored is false when a document
	// with the same content hash already exists under the same
	// (subject, topic) key; the returned Document is then the existing one
	// and nothing is written.
	Store(ctx context.Context, key domain.PaperKey, sourceURL string, data []byte) (doc *domain.Document, stored bool, err error)

	// Get retrieves a stored document by content hash.
	Get(ctx context.Context, contentHash string) (*domain.Document, error)

	// List returns all stored documents.
	List(ctx context.Context) ([]domain.Document, error)

	// Close releases resources.
	Close() error
}
