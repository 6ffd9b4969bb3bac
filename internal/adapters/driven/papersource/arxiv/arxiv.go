// Package arxiv implements driven.PaperSource against the arXiv API.
// Searches hit the Atom query endpoint; fetches download the PDF. All calls
// go through a shared rate limiter, per the arXiv API usage policy.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/veritus-labs/scholia/internal/core/domain"
	"github.com/veritus-labs/scholia/internal/core/ports/driven"
	"github.com/veritus-labs/scholia/internal/logger"
)

const (
	// DefaultBaseURL is the arXiv Atom API endpoint.
	DefaultBaseURL = "http://export.arxiv.org/api/query"

	// maxAbstractLen truncates abstracts for candidate listings.
	maxAbstractLen = 500

	// defaultTimeout bounds a single HTTP exchange.
	defaultTimeout = 30 * time.Second
)

// Ensure Client implements the interface.
var _ driven.PaperSource = (*Client)(nil)

// Config holds arXiv client settings.
type Config struct {
	// BaseURL is the query endpoint. Defaults to DefaultBaseURL.
	BaseURL string

	// RequestsPerSecond caps outgoing requests. Defaults to 1/3 rps,
	// matching the interval arXiv asks clients to keep.
	RequestsPerSecond float64

	// Timeout bounds a single request. Defaults to 30s.
	Timeout time.Duration
}

// Client talks to the arXiv API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an arXiv client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1.0 / 3.0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// Atom feed wire types.
type feed struct {
	Entries []entry `xml:"entry"`
}

type entry struct {
	ID        string   `xml:"id"`
	Title     string   `xml:"title"`
	Summary   string   `xml:"summary"`
	Published string   `xml:"published"`
	Authors   []author `xml:"author"`
	Links     []link   `xml:"link"`
}

type author struct {
	Name string `xml:"name"`
}

type link struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

// Search queries arXiv for papers. The filter's subject and topic are
// prepended to the query to steer relevance, and carried onto each
// candidate so downstream storage files the paper correctly. Results keep
// the source's relevance order.
func (c *Client) Search(
	ctx context.Context, query string, filter domain.QueryFilter, maxResults int,
) ([]domain.CandidateRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("arxiv search: %w: empty query", domain.ErrInvalidInput)
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	terms := query
	if filter.Topic != "" {
		terms = filter.Topic + " " + terms
	}
	if filter.Subject != "" {
		terms = filter.Subject + " " + terms
	}

	params := url.Values{}
	params.Set("search_query", "all:"+terms)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", maxResults))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	body, err := c.get(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("arxiv search: %w", err)
	}

	var f feed
	if err := xml.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("arxiv search: decoding feed: %w", err)
	}

	candidates := make([]domain.CandidateRecord, 0, len(f.Entries))
	for _, e := range f.Entries {
		candidates = append(candidates, c.toCandidate(e, filter))
	}
	logger.Debug("arXiv returned %d entries for %q", len(candidates), terms)
	return candidates, nil
}

// Fetch downloads paper bytes, typically a PDF.
func (c *Client) Fetch(ctx context.Context, fetchURL string) ([]byte, error) {
	data, err := c.get(ctx, fetchURL)
	if err != nil {
		return nil, fmt.Errorf("arxiv fetch %s: %w", fetchURL, err)
	}
	return data, nil
}

// get performs a rate-limited GET and returns the response body.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrExternalTimeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// toCandidate maps an Atom entry to a candidate record.
func (c *Client) toCandidate(e entry, filter domain.QueryFilter) domain.CandidateRecord {
	authors := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		authors = append(authors, strings.TrimSpace(a.Name))
	}

	abstract := strings.Join(strings.Fields(e.Summary), " ")
	if runes := []rune(abstract); len(runes) > maxAbstractLen {
		abstract = string(runes[:maxAbstractLen])
	}

	year := 0
	if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
		year = t.Year()
	}

	fetchURL := ""
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			fetchURL = l.Href
			break
		}
	}
	if fetchURL == "" {
		// Fall back to rewriting the abstract URL; arXiv mirrors the
		// layout /abs/<id> -> /pdf/<id>.
		fetchURL = strings.Replace(e.ID, "/abs/", "/pdf/", 1)
	}

	return domain.CandidateRecord{
		SourceID: e.ID,
		Title:    strings.Join(strings.Fields(e.Title), " "),
		Abstract: abstract,
		Authors:  authors,
		Year:     year,
		FetchURL: fetchURL,
		Subject:  filter.Subject,
		Topic:    filter.Topic,
	}
}
