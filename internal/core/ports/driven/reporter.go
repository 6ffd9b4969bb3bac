package driven

import "context"

// ReportRenderer turns a markdown report into a file on disk.
// This is an excluded collaborator: it is invoked only after a grounded
// answer exists and takes no part in the retrieval workflow.
type ReportRenderer interface {
	// Render writes the report and returns the path of the created file.
	Render(ctx context.Context, title, author, markdown string) (string, error)
}
