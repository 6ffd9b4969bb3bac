package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/veritus-labs/scholia/internal/core/domain"
)

// ProbeInput is the input schema for the research_paper_probe tool.
type ProbeInput struct {
	Query   string `json:"query" jsonschema:"the research question to answer from the indexed corpus"`
	Subject string `json:"subject,omitempty" jsonschema:"restrict retrieval to this subject area"`
	Topic   string `json:"topic,omitempty" jsonschema:"restrict retrieval to this topic within the subject"`
	Year    int    `json:"year,omitempty" jsonschema:"restrict retrieval to papers from this publication year"`
	K       int    `json:"k,omitempty" jsonschema:"maximum number of chunks to retrieve (default 10)"`
}

// ProbeOutput is the output schema for the research_paper_probe tool.
type ProbeOutput struct {
	WorkflowID   string         `json:"workflow_id"`
	Answer       string         `json:"answer,omitempty"`
	Confidence   float64        `json:"confidence"`
	Insufficient bool           `json:"insufficient"`
	Grounded     bool           `json:"grounded"`
	Sources      []SourceOutput `json:"sources,omitempty"`
	State        string         `json:"state"`
}

// SourceOutput identifies one paper excerpt backing an answer.
type SourceOutput struct {
	Title   string `json:"title"`
	Year    int    `json:"year,omitempty"`
	Subject string `json:"subject,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Page    int    `json:"page"`
}

// SearchPapersInput is the input schema for the search_papers tool.
type SearchPapersInput struct {
	WorkflowID string `json:"workflow_id" jsonschema:"the workflow awaiting expansion consent"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of candidate papers (default 10)"`
}

// SearchPapersOutput is the output schema for the search_papers tool.
type SearchPapersOutput struct {
	Candidates []CandidateOutput `json:"candidates"`
	Count      int               `json:"count"`
}

// CandidateOutput describes one paper the external source offered.
type CandidateOutput struct {
	SourceID string   `json:"source_id"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	Year     int      `json:"year,omitempty"`
	FetchURL string   `json:"fetch_url"`
	Subject  string   `json:"subject,omitempty"`
	Topic    string   `json:"topic,omitempty"`
}

// CandidateInput is a candidate the caller consents to ingest, echoing the
// fields returned by search_papers.
type CandidateInput struct {
	SourceID string   `json:"source_id"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	Year     int      `json:"year,omitempty"`
	FetchURL string   `json:"fetch_url"`
	Subject  string   `json:"subject,omitempty"`
	Topic    string   `json:"topic,omitempty"`
}

// ExpandInput is the input schema for the expand_corpus tool.
type ExpandInput struct {
	WorkflowID string           `json:"workflow_id" jsonschema:"the workflow awaiting expansion consent"`
	Candidates []CandidateInput `json:"candidates" jsonschema:"the papers the user consented to download and index"`
}

// ExpandOutput is the output schema for the expand_corpus tool.
type ExpandOutput struct {
	Outcomes []OutcomeOutput `json:"outcomes"`
	Probe    ProbeOutput     `json:"probe"`
}

// OutcomeOutput reports what happened to one consented candidate.
type OutcomeOutput struct {
	Title         string `json:"title"`
	Status        string `json:"status"`
	ChunksIndexed int    `json:"chunks_indexed,omitempty"`
	Error         string `json:"error,omitempty"`
}

// DeclineInput is the input schema for the decline_expansion tool.
type DeclineInput struct {
	WorkflowID string `json:"workflow_id" jsonschema:"the workflow awaiting expansion consent"`
}

// ReportInput is the input schema for the generate_report tool.
type ReportInput struct {
	Title    string `json:"title" jsonschema:"the report title"`
	Author   string `json:"author,omitempty" jsonschema:"the report author"`
	Markdown string `json:"markdown" jsonschema:"the report body in markdown"`
}

// ReportOutput is the output schema for the generate_report tool.
type ReportOutput struct {
	Path string `json:"path"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "research_paper_probe",
		Description: "Answer a research question from the indexed paper corpus. " +
			"When the corpus is insufficient the workflow awaits consent to expand it.",
	}, s.handleProbe)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "search_papers",
		Description: "Search the external paper source for candidates to expand an " +
			"insufficient workflow. Nothing is downloaded or indexed by this tool.",
	}, s.handleSearchPapers)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "expand_corpus",
		Description: "Download and index the consented candidate papers, then " +
			"re-answer the workflow's question against the expanded corpus.",
	}, s.handleExpand)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "decline_expansion",
		Description: "Withhold consent to expand the corpus. The workflow ends " +
			"with its original answer, marked as not grounded in sufficient sources.",
	}, s.handleDecline)

	if s.ports.Report != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "generate_report",
			Description: "Write a markdown research report to the reports directory.",
		}, s.handleReport)
	}
}

// handleProbe handles the research_paper_probe tool invocation.
func (s *Server) handleProbe(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProbeInput,
) (*mcp.CallToolResult, ProbeOutput, error) {
	filter := domain.QueryFilter{
		Subject: input.Subject,
		Topic:   input.Topic,
		K:       input.K,
	}
	if input.Year > 0 {
		year := input.Year
		filter.Year = &year
	}

	workflowID, result, err := s.ports.Research.Probe(ctx, input.Query, filter)
	if err != nil {
		return nil, ProbeOutput{}, err
	}

	state, err := s.ports.Research.State(ctx, workflowID)
	if err != nil {
		return nil, ProbeOutput{}, err
	}

	return nil, probeOutput(workflowID, result, state), nil
}

// handleSearchPapers handles the search_papers tool invocation.
func (s *Server) handleSearchPapers(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchPapersInput,
) (*mcp.CallToolResult, SearchPapersOutput, error) {
	candidates, err := s.ports.Research.RequestExpansion(ctx, input.WorkflowID, input.MaxResults)
	if err != nil {
		return nil, SearchPapersOutput{}, err
	}

	output := SearchPapersOutput{
		Candidates: make([]CandidateOutput, len(candidates)),
		Count:      len(candidates),
	}
	for i, c := range candidates {
		output.Candidates[i] = CandidateOutput{
			SourceID: c.SourceID,
			Title:    c.Title,
			Abstract: c.Abstract,
			Authors:  c.Authors,
			Year:     c.Year,
			FetchURL: c.FetchURL,
			Subject:  c.Subject,
			Topic:    c.Topic,
		}
	}
	return nil, output, nil
}

// handleExpand handles the expand_corpus tool invocation. It applies the
// consented candidates and immediately re-probes, so the caller gets the
// updated answer in one round trip.
func (s *Server) handleExpand(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExpandInput,
) (*mcp.CallToolResult, ExpandOutput, error) {
	selected := make([]domain.CandidateRecord, len(input.Candidates))
	for i, c := range input.Candidates {
		selected[i] = domain.CandidateRecord{
			SourceID: c.SourceID,
			Title:    c.Title,
			Abstract: c.Abstract,
			Authors:  c.Authors,
			Year:     c.Year,
			FetchURL: c.FetchURL,
			Subject:  c.Subject,
			Topic:    c.Topic,
		}
	}

	outcomes, err := s.ports.Research.ApplyExpansion(ctx, input.WorkflowID, selected)
	if err != nil {
		return nil, ExpandOutput{}, err
	}

	result, err := s.ports.Research.Reprobe(ctx, input.WorkflowID)
	if err != nil {
		return nil, ExpandOutput{}, err
	}
	state, err := s.ports.Research.State(ctx, input.WorkflowID)
	if err != nil {
		return nil, ExpandOutput{}, err
	}

	output := ExpandOutput{
		Outcomes: make([]OutcomeOutput, len(outcomes)),
		Probe:    probeOutput(input.WorkflowID, result, state),
	}
	for i, o := range outcomes {
		out := OutcomeOutput{
			Title:         o.Candidate.Title,
			Status:        string(o.Status),
			ChunksIndexed: o.ChunksIndexed,
		}
		if o.Err != nil {
			out.Error = o.Err.Error()
		}
		output.Outcomes[i] = out
	}
	return nil, output, nil
}

// handleDecline handles the decline_expansion tool invocation.
func (s *Server) handleDecline(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeclineInput,
) (*mcp.CallToolResult, ProbeOutput, error) {
	result, err := s.ports.Research.DeclineExpansion(ctx, input.WorkflowID)
	if err != nil {
		return nil, ProbeOutput{}, err
	}
	state, err := s.ports.Research.State(ctx, input.WorkflowID)
	if err != nil {
		return nil, ProbeOutput{}, err
	}
	return nil, probeOutput(input.WorkflowID, result, state), nil
}

// handleReport handles the generate_report tool invocation.
func (s *Server) handleReport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReportInput,
) (*mcp.CallToolResult, ReportOutput, error) {
	path, err := s.ports.Report.Generate(ctx, input.Title, input.Author, input.Markdown)
	if err != nil {
		return nil, ReportOutput{}, err
	}
	return nil, ReportOutput{Path: path}, nil
}

// probeOutput maps a retrieval result to the wire schema.
func probeOutput(workflowID string, result *domain.RetrievalResult, state domain.WorkflowState) ProbeOutput {
	output := ProbeOutput{
		WorkflowID:   workflowID,
		Answer:       result.Answer,
		Confidence:   result.Confidence,
		Insufficient: result.Insufficient,
		Grounded:     result.Grounded,
		State:        string(state),
	}
	for _, src := range result.Sources {
		output.Sources = append(output.Sources, SourceOutput{
			Title:   src.Title,
			Year:    src.Year,
			Subject: src.Subject,
			Topic:   src.Topic,
			Page:    src.Page,
		})
	}
	return output
}
