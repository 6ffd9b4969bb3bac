package driving

import "context"

// ReportService generates a report file from markdown content.
type ReportService interface {
	// Generate renders the report and returns the created file path.
	Generate(ctx context.Context, title, author, markdown string) (string, error)
}
