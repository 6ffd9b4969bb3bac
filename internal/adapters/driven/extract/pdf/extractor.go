// Package pdf extracts per-page text from PDF bytes.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/veritus-labs/scholia/internal/core/domain"
	"github.com/veritus-labs/scholia/internal/core/ports/driven"
	"github.com/veritus-labs/scholia/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor extracts text from PDF documents page by page.
type Extractor struct{}

// NewExtractor creates a PDF text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the text of each page, keeping 1-based page numbers so
// retrieval results can cite pages. Pages whose text cannot be decoded are
// skipped; an unreadable document fails outright.
func (e *Extractor) Extract(ctx context.Context, data []byte) ([]domain.Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", domain.ErrIngestFailed, err)
	}

	total := reader.NumPage()
	pages := make([]domain.Page, 0, total)
	for num := 1; num <= total; num++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("PDF page %d: cannot extract text: %v", num, err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		pages = append(pages, domain.Page{Number: num, Text: text})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: pdf contains no extractable text", domain.ErrIngestFailed)
	}
	return pages, nil
}
