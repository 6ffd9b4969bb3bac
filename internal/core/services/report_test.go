package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritus-labs/scholia/internal/core/domain"
)

type mockRenderer struct {
	path string
	err  error
}

func (m *mockRenderer) Render(_ context.Context, _, _, _ string) (string, error) {
	return m.path, m.err
}

func TestReportGenerate(t *testing.T) {
	w := NewReportWriter(&mockRenderer{path: "/reports/out.md"})

	path, err := w.Generate(context.Background(), "Survey", "R. Author", "# Body")
	require.NoError(t, err)
	assert.Equal(t, "/reports/out.md", path)
}

func TestReportRejectsEmptyTitleOrBody(t *testing.T) {
	w := NewReportWriter(&mockRenderer{path: "/reports/out.md"})

	_, err := w.Generate(context.Background(), "  ", "", "# Body")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = w.Generate(context.Background(), "Title", "", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReportRendererError(t *testing.T) {
	w := NewReportWriter(&mockRenderer{err: errors.New("disk full")})

	_, err := w.Generate(context.Background(), "Title", "", "# Body")
	assert.Error(t, err)
}
