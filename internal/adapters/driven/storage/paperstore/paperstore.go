// Package paperstore stores fetched papers on disk under
// {root}/{subject}/{topic}/{title} - {year}.pdf and keeps a SQLite catalog
// keyed by content hash, so storing identical bytes twice is a no-op.
package paperstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/veritus-labs/scholia/internal/core/domain"
	"github.com/veritus-labs/scholia/internal/core/ports/driven"
	"github.com/veritus-labs/scholia/internal/logger"
)

// maxTitleLen bounds the filename component derived from a paper title.
const maxTitleLen = 100

// Ensure Store implements the interface.
var _ driven.PaperStore = (*Store)(nil)

// Store is a filesystem-backed implementation of driven.PaperStore.
type Store struct {
	root string
	db   *sql.DB
}

// NewStore opens a paper store rooted at the given directory. The catalog
// database lives inside the root as catalog.db.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating papers root: %w", domain.ErrIOFailure, err)
	}

	dbPath := filepath.Join(root, "catalog.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			content_hash TEXT PRIMARY KEY,
			subject      TEXT NOT NULL,
			topic        TEXT NOT NULL,
			title        TEXT NOT NULL,
			year         INTEGER NOT NULL,
			source_url   TEXT NOT NULL,
			path         TEXT NOT NULL,
			ingested_at  DATETIME NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}

	return &Store{root: root, db: db}, nil
}

// Close closes the catalog database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Root returns the papers root directory.
func (s *Store) Root() string {
	return s.root
}

// Store writes the paper to disk and catalogs it. When the catalog already
// holds the content hash the existing document is returned with stored set
// to false and nothing touches the disk.
func (s *Store) Store(
	ctx context.Context, key domain.PaperKey, sourceURL string, data []byte,
) (*domain.Document, bool, error) {
	if len(data) == 0 {
		return nil, false, fmt.Errorf("store %q: %w: empty content", key.Title, domain.ErrInvalidInput)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	if existing, err := s.Get(ctx, hash); err == nil {
		logger.Debug("Paper %q already stored as %s", key.Title, existing.Path)
		return existing, false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	path := s.paperPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, false, fmt.Errorf("%w: creating paper directory: %w", domain.ErrIOFailure, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, false, fmt.Errorf("%w: writing %s: %w", domain.ErrIOFailure, path, err)
	}

	doc := &domain.Document{
		Key:         key,
		ContentHash: hash,
		SourceURL:   sourceURL,
		Path:        path,
		IngestedAt:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (content_hash, subject, topic, title, year, source_url, path, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ContentHash, key.Subject, key.Topic, key.Title, key.Year, sourceURL, path, doc.IngestedAt)
	if err != nil {
		return nil, false, fmt.Errorf("cataloguing %q: %w", key.Title, err)
	}

	logger.Info("Stored %q at %s", key.Title, path)
	return doc, true, nil
}

// Get retrieves a catalogued document by content hash.
func (s *Store) Get(ctx context.Context, contentHash string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT content_hash, subject, topic, title, year, source_url, path, ingested_at
		FROM documents WHERE content_hash = ?
	`, contentHash)
	return scanDocument(row.Scan)
}

// List returns all catalogued documents, oldest first.
func (s *Store) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT content_hash, subject, topic, title, year, source_url, path, ingested_at
		FROM documents ORDER BY ingested_at, content_hash
	`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// scanDocument scans a single document row.
func scanDocument(scan func(...any) error) (*domain.Document, error) {
	var doc domain.Document
	err := scan(&doc.ContentHash, &doc.Key.Subject, &doc.Key.Topic, &doc.Key.Title,
		&doc.Key.Year, &doc.SourceURL, &doc.Path, &doc.IngestedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

// paperPath builds the on-disk location for a paper.
func (s *Store) paperPath(key domain.PaperKey) string {
	name := sanitizeFilename(shortenTitle(key.Title))
	if key.Year > 0 {
		name = fmt.Sprintf("%s - %d", name, key.Year)
	}
	return filepath.Join(s.root,
		sanitizeFilename(key.Subject),
		sanitizeFilename(key.Topic),
		name+".pdf")
}

// shortenTitle keeps only the part before the first colon, where paper
// titles conventionally put the memorable name.
func shortenTitle(title string) string {
	if idx := strings.Index(title, ":"); idx > 0 {
		return strings.TrimSpace(title[:idx])
	}
	return strings.TrimSpace(title)
}

// sanitizeFilename strips characters that are unsafe in file names,
// collapses whitespace, and truncates to a bounded length.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.Join(strings.Fields(b.String()), " ")
	runes := []rune(cleaned)
	if len(runes) > maxTitleLen {
		cleaned = strings.TrimSpace(string(runes[:maxTitleLen]))
	}
	if cleaned == "" {
		cleaned = "untitled"
	}
	return cleaned
}
