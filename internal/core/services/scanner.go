package services

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/veritus-labs/scholia/internal/core/domain"
	"github.com/veritus-labs/scholia/internal/core/ports/driven"
	"github.com/veritus-labs/scholia/internal/logger"
)

// CorpusScanner reconciles the papers directory with the vector index. It
// catalogues PDFs dropped into the tree out of band and indexes any paper
// the index does not yet contain. Layout under the root is
// subject/topic/"title - year.pdf".
type CorpusScanner struct {
	root     string
	store    driven.PaperStore
	index    driven.VectorIndex
	pipeline *IngestPipeline
}

// NewCorpusScanner creates a scanner over the given papers root.
func NewCorpusScanner(
	root string,
	store driven.PaperStore,
	index driven.VectorIndex,
	pipeline *IngestPipeline,
) *CorpusScanner {
	return &CorpusScanner{
		root:     root,
		store:    store,
		index:    index,
		pipeline: pipeline,
	}
}

// Scan walks the papers root and indexes every PDF missing from the index.
// Files that fail to parse or ingest are logged and skipped; one bad file
// never aborts the pass. Returns the number of papers newly indexed.
func (s *CorpusScanner) Scan(ctx context.Context) (int, error) {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		logger.Debug("Papers root %s does not exist, nothing to scan", s.root)
		return 0, nil
	}

	indexed := 0
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}

		ok, serr := s.scanFile(ctx, path)
		if serr != nil {
			logger.Warn("Scan: skipping %s: %v", path, serr)
			return nil
		}
		if ok {
			indexed++
		}
		return nil
	})
	if err != nil {
		return indexed, fmt.Errorf("scan papers root: %w", err)
	}

	logger.Info("Corpus scan complete: %d paper(s) newly indexed", indexed)
	return indexed, nil
}

// scanFile catalogues and indexes a single PDF. Returns true when the file
// was newly indexed, false when the index already contained it.
func (s *CorpusScanner) scanFile(ctx context.Context, path string) (bool, error) {
	key, err := s.parseKey(path)
	if err != nil {
		return false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %w", domain.ErrIOFailure, path, err)
	}

	doc, stored, err := s.store.Store(ctx, key, "", data)
	if err != nil {
		return false, fmt.Errorf("catalogue %s: %w", path, err)
	}
	if !stored {
		logger.Debug("Scan: %s already catalogued", path)
	}

	have, err := s.index.Contains(ctx, doc.ContentHash)
	if err != nil {
		return false, fmt.Errorf("index lookup for %s: %w", path, err)
	}
	if have {
		return false, nil
	}

	chunks, err := s.pipeline.Ingest(ctx, doc, data)
	if err != nil {
		return false, fmt.Errorf("ingest %s: %w", path, err)
	}
	if err := s.index.Upsert(ctx, chunks); err != nil {
		return false, fmt.Errorf("index %s: %w", path, err)
	}

	logger.Info("Indexed %s (%d chunks)", path, len(chunks))
	return true, nil
}

// parseKey derives the paper key from a file's position under the root.
func (s *CorpusScanner) parseKey(path string) (domain.PaperKey, error) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return domain.PaperKey{}, fmt.Errorf("relativize %s: %w", path, err)
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 3 {
		return domain.PaperKey{}, fmt.Errorf("%w: expected subject/topic/file layout, got %q", domain.ErrInvalidInput, rel)
	}

	name := strings.TrimSuffix(parts[2], filepath.Ext(parts[2]))
	title := name
	year := 0
	if idx := strings.LastIndex(name, " - "); idx >= 0 {
		if y, yerr := strconv.Atoi(strings.TrimSpace(name[idx+3:])); yerr == nil {
			title = name[:idx]
			year = y
		}
	}

	return domain.PaperKey{
		Subject: parts[0],
		Topic:   parts[1],
		Title:   title,
		Year:    year,
	}, nil
}

// Watch blocks, indexing PDFs as they appear under the root, until the
// context is cancelled. New subdirectories are added to the watch so papers
// in fresh subject/topic folders are picked up too.
func (s *CorpusScanner) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch papers root: %w", err)
	}

	logger.Info("Watching %s for new papers", s.root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			info, statErr := os.Stat(event.Name)
			if statErr != nil {
				continue
			}
			if info.IsDir() {
				if werr := watcher.Add(event.Name); werr != nil {
					logger.Warn("Watch: cannot watch %s: %v", event.Name, werr)
				}
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".pdf") {
				continue
			}
			if _, serr := s.scanFile(ctx, event.Name); serr != nil {
				logger.Warn("Watch: skipping %s: %v", event.Name, serr)
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", werr)
		}
	}
}
