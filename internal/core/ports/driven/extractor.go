package driven

import (
	"context"

	"github.com/veritus-labs/scholia/internal/core/domain"
)

// TextExtractor extracts page texts from raw paper bytes (PDF).
type TextExtractor interface {
	// Extract returns the document's pages in order. Pages with no
	// extractable text are omitted.
	Extract(ctx context.Context, data []byte) ([]domain.Page, error)
}
