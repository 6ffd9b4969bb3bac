package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritus-labs/scholia/internal/core/domain"
)

func writePaper(t *testing.T, root, subject, topic, name string, body []byte) string {
	t.Helper()
	dir := filepath.Join(root, subject, topic)
	require.NoError(t, os.MkdirAll(dir, 0700))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, body, 0600))
	return path
}

func newScanner(t *testing.T, root string, index *mockIndex) (*CorpusScanner, *mockPaperStore) {
	t.Helper()
	store := &mockPaperStore{}
	pipeline := NewIngestPipeline(&mockExtractor{}, nil, &mockEmbedder{vector: []float32{1, 0}}, fastRetry())
	return NewCorpusScanner(root, store, index, pipeline), store
}

func TestScanIndexesNewPapers(t *testing.T) {
	root := t.TempDir()
	writePaper(t, root, "cs", "ml", "Attention - 2017.pdf", []byte("paper one"))
	writePaper(t, root, "cs", "nlp", "BERT - 2018.pdf", []byte("paper two"))

	index := &mockIndex{contains: map[string]bool{}}
	s, _ := newScanner(t, root, index)

	indexed, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, indexed)
	assert.Len(t, index.upserted, 2)
}

func TestScanSkipsAlreadyIndexed(t *testing.T) {
	root := t.TempDir()
	writePaper(t, root, "cs", "ml", "Known - 2020.pdf", []byte("known body"))

	// The mock store hashes as "hash-" + body.
	index := &mockIndex{contains: map[string]bool{"hash-known body": true}}
	s, _ := newScanner(t, root, index)

	indexed, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, indexed)
	assert.Empty(t, index.upserted)
}

func TestScanIgnoresNonPDFAndBadLayout(t *testing.T) {
	root := t.TempDir()
	writePaper(t, root, "cs", "ml", "notes.txt", []byte("not a pdf"))
	// A PDF directly under the root violates the subject/topic layout and
	// is skipped without aborting the scan.
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.pdf"), []byte("stray"), 0600))
	writePaper(t, root, "cs", "ml", "Good - 2021.pdf", []byte("good"))

	index := &mockIndex{contains: map[string]bool{}}
	s, _ := newScanner(t, root, index)

	indexed, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, indexed)
}

func TestScanMissingRoot(t *testing.T) {
	index := &mockIndex{}
	s, _ := newScanner(t, filepath.Join(t.TempDir(), "absent"), index)

	indexed, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, indexed)
}

func TestParseKey(t *testing.T) {
	root := t.TempDir()
	s, _ := newScanner(t, root, &mockIndex{})

	key, err := s.parseKey(filepath.Join(root, "Artificial Intelligence", "Agentic AI", "Tool Use - 2024.pdf"))
	require.NoError(t, err)
	assert.Equal(t, domain.PaperKey{
		Subject: "Artificial Intelligence",
		Topic:   "Agentic AI",
		Title:   "Tool Use",
		Year:    2024,
	}, key)

	// No year suffix: the whole stem is the title.
	key, err = s.parseKey(filepath.Join(root, "cs", "ml", "No Year Here.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "No Year Here", key.Title)
	assert.Zero(t, key.Year)

	_, err = s.parseKey(filepath.Join(root, "too-shallow.pdf"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
