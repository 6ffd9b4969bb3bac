// Package mcp provides an MCP (Model Context Protocol) server adapter for
// Scholia. It lets AI assistants drive the probe, consent-gated expansion,
// and reporting workflow over stdio or HTTP.
package mcp

import "errors"

// ErrMissingResearchService is returned when the research service is not provided.
var ErrMissingResearchService = errors.New("mcp: research service is required")
