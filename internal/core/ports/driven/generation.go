package driven

import (
	"context"

	"github.com/veritus-labs/scholia/internal/core/domain"
)

// GenerationService produces natural-language answers grounded in retrieved
// chunk texts. Generation is never retried: a timeout or error surfaces to
// the retrieval engine as insufficiency.
type GenerationService interface {
	// Generate answers the question using only the supplied context chunks.
	Generate(ctx context.Context, question string, contextChunks []domain.Chunk) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
