package mcp

import (
	"github.com/veritus-labs/scholia/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Research drives the probe and expansion workflow.
	Research driving.ResearchService

	// Report generates research reports.
	Report driving.ReportService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Research == nil {
		return ErrMissingResearchService
	}
	// Report is optional; the tool is simply not registered without it.
	return nil
}
