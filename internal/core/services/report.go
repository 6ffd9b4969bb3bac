package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/veritus-labs/scholia/internal/core/domain"
	"github.com/veritus-labs/scholia/internal/core/ports/driven"
	"github.com/veritus-labs/scholia/internal/core/ports/driving"
	"github.com/veritus-labs/scholia/internal/logger"
)

var _ driving.ReportService = (*ReportWriter)(nil)

// ReportWriter validates report requests and hands them to the renderer.
type ReportWriter struct {
	renderer driven.ReportRenderer
}

// NewReportWriter creates a report service backed by the given renderer.
func NewReportWriter(renderer driven.ReportRenderer) *ReportWriter {
	return &ReportWriter{renderer: renderer}
}

// Generate renders a markdown report and returns the path it was written to.
func (r *ReportWriter) Generate(ctx context.Context, title, author, markdown string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: report title is empty", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(markdown) == "" {
		return "", fmt.Errorf("%w: report body is empty", domain.ErrInvalidInput)
	}

	path, err := r.renderer.Render(ctx, title, author, markdown)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	logger.Info("Report %q written to %s", title, path)
	return path, nil
}
