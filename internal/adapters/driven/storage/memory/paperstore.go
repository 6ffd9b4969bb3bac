package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/veritus-labs/scholia/internal/core/domain"
	"github.com/veritus-labs/scholia/internal/core/ports/driven"
)

// Ensure PaperStore implements the interface.
var _ driven.PaperStore = (*PaperStore)(nil)

// PaperStore is an in-memory implementation of driven.PaperStore. Used in
// tests and as a throwaway backend; content is lost on process exit.
type PaperStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	order     []string
}

// NewPaperStore creates a new in-memory paper store.
func NewPaperStore() *PaperStore {
	return &PaperStore{
		documents: make(map[string]domain.Document),
	}
}

// Store records the paper unless identical content is already present.
func (s *PaperStore) Store(
	_ context.Context, key domain.PaperKey, sourceURL string, data []byte,
) (*domain.Document, bool, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.documents[hash]; ok {
		return &existing, false, nil
	}

	doc := domain.Document{
		Key:         key,
		ContentHash: hash,
		SourceURL:   sourceURL,
		Path:        key.Subject + "/" + key.Topic + "/" + key.Title,
		IngestedAt:  time.Now(),
	}
	s.documents[hash] = doc
	s.order = append(s.order, hash)
	return &doc, true, nil
}

// Get retrieves a document by content hash.
func (s *PaperStore) Get(_ context.Context, contentHash string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[contentHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// List returns all stored documents in insertion order.
func (s *PaperStore) List(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(s.order))
	for _, hash := range s.order {
		result = append(result, s.documents[hash])
	}
	return result, nil
}

// Close is a no-op for the in-memory store.
func (s *PaperStore) Close() error {
	return nil
}
