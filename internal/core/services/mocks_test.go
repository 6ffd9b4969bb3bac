package services

import (
	"context"
	"errors"
	"sync"

	"github.com/veritus-labs/scholia/internal/core/domain"
	"github.com/veritus-labs/scholia/internal/core/ports/driven"
)

// mockEmbedder returns a fixed vector for every input.
type mockEmbedder struct {
	vector  []float32
	err     error
	batches [][]string
	mu      sync.Mutex
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.vector, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, texts)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.vector
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return len(m.vector) }
func (m *mockEmbedder) ModelName() string            { return "mock-embedder" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockGenerator answers with a canned string or fails.
type mockGenerator struct {
	answer string
	err    error
	calls  int
}

func (m *mockGenerator) Generate(_ context.Context, _ string, _ []domain.Chunk) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockGenerator) ModelName() string            { return "mock-generator" }
func (m *mockGenerator) Ping(_ context.Context) error { return nil }
func (m *mockGenerator) Close() error                 { return nil }

// mockIndex returns preconfigured hits and records upserts.
type mockIndex struct {
	hits     []driven.VectorHit
	queryErr error
	upserted [][]domain.Chunk
	contains map[string]bool
	mu       sync.Mutex
}

func (m *mockIndex) Upsert(_ context.Context, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, chunks)
	return nil
}

func (m *mockIndex) Query(_ context.Context, _ []float32, _ domain.QueryFilter, k int) ([]driven.VectorHit, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if k < len(m.hits) {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func (m *mockIndex) Contains(_ context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contains[hash], nil
}

func (m *mockIndex) Count(_ context.Context) (int, error) { return len(m.hits), nil }
func (m *mockIndex) Close() error                         { return nil }

// mockSource serves candidates and per-URL payloads.
type mockSource struct {
	candidates []domain.CandidateRecord
	searchErr  error
	payloads   map[string][]byte
	fetchErr   map[string]error
	searches   int
	mu         sync.Mutex
}

func (m *mockSource) Search(_ context.Context, _ string, _ domain.QueryFilter, _ int) ([]domain.CandidateRecord, error) {
	m.mu.Lock()
	m.searches++
	m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.candidates, nil
}

func (m *mockSource) Fetch(_ context.Context, url string) ([]byte, error) {
	if err := m.fetchErr[url]; err != nil {
		return nil, err
	}
	data, ok := m.payloads[url]
	if !ok {
		return nil, errors.New("no payload for " + url)
	}
	return data, nil
}

// mockPaperStore deduplicates on content, like the real store.
type mockPaperStore struct {
	storeErr error
	seen     map[string]bool
	mu       sync.Mutex
}

func (m *mockPaperStore) Store(_ context.Context, key domain.PaperKey, sourceURL string, data []byte) (*domain.Document, bool, error) {
	if m.storeErr != nil {
		return nil, false, m.storeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	hash := "hash-" + string(data)
	dup := m.seen[hash]
	m.seen[hash] = true
	doc := &domain.Document{Key: key, ContentHash: hash, SourceURL: sourceURL}
	return doc, !dup, nil
}

func (m *mockPaperStore) Get(_ context.Context, _ string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockPaperStore) List(_ context.Context) ([]domain.Document, error) { return nil, nil }
func (m *mockPaperStore) Close() error                                      { return nil }

// mockExtractor yields one page per payload.
type mockExtractor struct {
	err   error
	pages []domain.Page
}

func (m *mockExtractor) Extract(_ context.Context, data []byte) ([]domain.Page, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.pages != nil {
		return m.pages, nil
	}
	return []domain.Page{{Number: 1, Text: string(data)}}, nil
}
