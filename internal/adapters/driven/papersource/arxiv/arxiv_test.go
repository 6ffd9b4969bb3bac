package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritus-labs/scholia/internal/core/domain"
)

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All   You Need</title>
    <summary>  The dominant sequence transduction models are based on complex
      recurrent or convolutional neural networks.  </summary>
    <published>2017-06-12T17:57:34Z</published>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <link href="http://arxiv.org/abs/1706.03762v7" rel="alternate" type="text/html"/>
    <link href="http://arxiv.org/pdf/1706.03762v7" rel="related" title="pdf" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1810.04805v2</id>
    <title>BERT: Pre-training of Deep Bidirectional Transformers</title>
    <summary>Second entry.</summary>
    <published>2018-10-11T00:50:01Z</published>
    <author><name>Jacob Devlin</name></author>
  </entry>
</feed>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, RequestsPerSecond: 1000})
}

func TestSearchParsesFeed(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Write([]byte(atomFixture))
	})

	filter := domain.QueryFilter{Subject: "Artificial Intelligence", Topic: "Transformers"}
	candidates, err := client.Search(context.Background(), "attention mechanisms", filter, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "all:Artificial Intelligence Transformers attention mechanisms", gotQuery)

	first := candidates[0]
	assert.Equal(t, "http://arxiv.org/abs/1706.03762v7", first.SourceID)
	assert.Equal(t, "Attention Is All You Need", first.Title)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, first.Authors)
	assert.Equal(t, 2017, first.Year)
	assert.Equal(t, "http://arxiv.org/pdf/1706.03762v7", first.FetchURL)
	assert.Equal(t, "Artificial Intelligence", first.Subject)
	assert.Equal(t, "Transformers", first.Topic)
	assert.False(t, strings.Contains(first.Abstract, "\n"), "abstract whitespace is normalised")

	// No pdf link: the abs URL is rewritten.
	assert.Equal(t, "http://arxiv.org/pdf/1810.04805v2", candidates[1].FetchURL)
}

func TestSearchTruncatesLongAbstract(t *testing.T) {
	long := strings.Repeat("word ", 300)
	body := `<feed><entry><id>x</id><title>T</title><summary>` + long + `</summary></entry></feed>`
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(body))
	})

	candidates, err := client.Search(context.Background(), "q", domain.QueryFilter{}, 1)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Len(t, []rune(candidates[0].Abstract), maxAbstractLen)
}

func TestSearchEmptyQuery(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Search(context.Background(), "  ", domain.QueryFilter{}, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "throttled", http.StatusServiceUnavailable)
	})

	_, err := client.Search(context.Background(), "anything", domain.QueryFilter{}, 5)
	assert.Error(t, err)
}

func TestFetchReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("%PDF-1.5 payload"))
	}))
	defer srv.Close()

	client := NewClient(Config{RequestsPerSecond: 1000})
	data, err := client.Fetch(context.Background(), srv.URL+"/pdf/1234")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.5 payload"), data)
}
