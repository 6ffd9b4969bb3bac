// Package markdown renders research reports as markdown files.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veritus-labs/scholia/internal/core/domain"
	"github.com/veritus-labs/scholia/internal/core/ports/driven"
)

// Ensure Renderer implements the interface.
var _ driven.ReportRenderer = (*Renderer)(nil)

// Renderer writes reports into a directory, one markdown file per report.
type Renderer struct {
	dir string
}

// NewRenderer creates a renderer writing into the given directory.
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir}
}

// Render writes the report and returns its path. Filenames combine the
// sanitised title with a short unique suffix, so rendering the same title
// twice never overwrites an earlier report.
func (r *Renderer) Render(ctx context.Context, title, author, markdown string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.dir, 0700); err != nil {
		return "", fmt.Errorf("%w: creating reports directory: %w", domain.ErrIOFailure, err)
	}

	name := fmt.Sprintf("%s-%s.md", safeName(title), uuid.New().String()[:8])
	path := filepath.Join(r.dir, name)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if author != "" {
		fmt.Fprintf(&b, "*%s*\n\n", author)
	}
	fmt.Fprintf(&b, "*Generated %s*\n\n---\n\n", time.Now().UTC().Format("2006-01-02 15:04 UTC"))
	b.WriteString(strings.TrimSpace(markdown))
	b.WriteString("\n")

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return "", fmt.Errorf("%w: writing report: %w", domain.ErrIOFailure, err)
	}
	return path, nil
}

// safeName turns a title into a filesystem-safe slug.
func safeName(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "report"
	}
	if len(slug) > 60 {
		slug = slug[:60]
	}
	return slug
}
