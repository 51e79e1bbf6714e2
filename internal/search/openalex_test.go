// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/reason-search/internal/httputil"
	"github.com/pdiddy/reason-search/pkg/types"
)

// --- reconstructAbstract ---

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{
			name:  "empty map",
			index: map[string][]int{},
			want:  "",
		},
		{
			name:  "nil map",
			index: nil,
			want:  "",
		},
		{
			name:  "single word",
			index: map[string][]int{"hello": {0}},
			want:  "hello",
		},
		{
			name: "multi-word ordered",
			index: map[string][]int{
				"We":      {0},
				"propose": {1},
				"a":       {2},
				"new":     {3},
				"method":  {4},
			},
			want: "We propose a new method",
		},
		{
			name: "words with shared positions (word appearing multiple times)",
			index: map[string][]int{
				"the": {0, 4},
				"cat": {1},
				"sat": {2},
				"on":  {3},
				"mat": {5},
			},
			want: "the cat sat on the mat",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reconstructAbstract(tt.index)
			if got != tt.want {
				t.Errorf("reconstructAbstract() = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- Mock OpenAlex server ---

const sampleOpenAlexJSON = `{
  "meta": {"count": 2, "per_page": 20, "page": 1},
  "results": [
    {
      "id": "https://openalex.org/W2741809807",
      "title": "Attention Is All You Need",
      "doi": "https://doi.org/10.5555/3295222.3295349",
      "publication_date": "2017-06-12",
      "publication_year": 2017,
      "authorships": [
        {"author": {"id": "A1", "display_name": "Ashish Vaswani"}},
        {"author": {"id": "A2", "display_name": "Noam Shazeer"}}
      ],
      "abstract_inverted_index": {
        "We": [0],
        "propose": [1],
        "a": [2, 5],
        "new": [3],
        "architecture": [4],
        "based": [6],
        "on": [7],
        "attention": [8]
      },
      "open_access": {"is_oa": true, "oa_status": "green", "oa_url": "https://arxiv.org/pdf/1706.03762"}
    },
    {
      "id": "https://openalex.org/W3210812345",
      "title": "BERT: Pre-training of Deep Bidirectional Transformers",
      "doi": "",
      "publication_date": "",
      "publication_year": 2018,
      "authorships": [
        {"author": {"id": "A3", "display_name": "Jacob Devlin"}}
      ],
      "abstract_inverted_index": {},
      "open_access": {"is_oa": false, "oa_status": "closed", "oa_url": ""}
    }
  ]
}`

func openAlexTestServer(statusCode int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprint(w, body)
	}))
}

// --- OpenAlex.SearchAcademic ---

func withOpenAlexServer(t *testing.T, ts *httptest.Server) *OpenAlex {
	t.Helper()
	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	t.Cleanup(func() {
		openAlexSearchBase = old
		ts.Close()
	})
	return &OpenAlex{Client: ts.Client(), MaxRetries: 1}
}

func TestOpenAlexSearch(t *testing.T) {
	b := withOpenAlexServer(t, openAlexTestServer(http.StatusOK, sampleOpenAlexJSON))

	resp, err := b.SearchAcademic(context.Background(), "attention", types.AcademicSearchOptions{MaxResults: 2})
	if err != nil {
		t.Fatalf("SearchAcademic() error: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}

	r := resp.Results[0]
	if r.Title != "Attention Is All You Need" {
		t.Errorf("title = %q", r.Title)
	}
	if r.Source != types.SourceAcademic {
		t.Errorf("source = %q, want academic", r.Source)
	}
	if r.URL != "https://doi.org/10.5555/3295222.3295349" {
		t.Errorf("url = %q, want DOI link", r.URL)
	}
	if r.Content != "We propose a new architecture a based on attention" {
		t.Errorf("content = %q", r.Content)
	}
	if r.PublishedDate != "2017-06-12" {
		t.Errorf("published date = %q", r.PublishedDate)
	}
}

func TestOpenAlexSearchFallbacks(t *testing.T) {
	b := withOpenAlexServer(t, openAlexTestServer(http.StatusOK, sampleOpenAlexJSON))

	resp, err := b.SearchAcademic(context.Background(), "bert", types.AcademicSearchOptions{})
	if err != nil {
		t.Fatalf("SearchAcademic() error: %v", err)
	}
	r := resp.Results[1]
	if r.URL != "https://openalex.org/W3210812345" {
		t.Errorf("url = %q, want OpenAlex id when no DOI or OA copy", r.URL)
	}
	if r.Content != "Authors: Jacob Devlin" {
		t.Errorf("content = %q, want author line when abstract is missing", r.Content)
	}
}

func TestOpenAlexSearchRequestParams(t *testing.T) {
	var got *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `{"results": []}`)
	}))
	b := withOpenAlexServer(t, ts)
	b.Email = "research@example.com"
	b.UserAgent = "reason-search/test"

	if _, err := b.SearchAcademic(context.Background(), "  quantum codes ", types.AcademicSearchOptions{MaxResults: 3}); err != nil {
		t.Fatalf("SearchAcademic() error: %v", err)
	}
	q := got.URL.Query()
	if q.Get("search") != "quantum codes" {
		t.Errorf("search = %q", q.Get("search"))
	}
	if q.Get("per_page") != "3" {
		t.Errorf("per_page = %q, want 3", q.Get("per_page"))
	}
	if q.Get("mailto") != "research@example.com" {
		t.Errorf("mailto = %q", q.Get("mailto"))
	}
	if ua := got.Header.Get("User-Agent"); ua != "reason-search/test" {
		t.Errorf("User-Agent = %q", ua)
	}
}

func TestOpenAlexSearchHTTPError(t *testing.T) {
	b := withOpenAlexServer(t, openAlexTestServer(http.StatusInternalServerError, "boom"))

	_, err := b.SearchAcademic(context.Background(), "x", types.AcademicSearchOptions{})
	var se *httputil.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusInternalServerError {
		t.Errorf("error = %v, want StatusError 500", err)
	}
}

func TestOpenAlexSearchMalformedJSON(t *testing.T) {
	b := withOpenAlexServer(t, openAlexTestServer(http.StatusOK, "{not json"))

	if _, err := b.SearchAcademic(context.Background(), "x", types.AcademicSearchOptions{}); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestOpenAlexSearchEmptyQuery(t *testing.T) {
	b := &OpenAlex{Client: http.DefaultClient}
	if _, err := b.SearchAcademic(context.Background(), "   ", types.AcademicSearchOptions{}); err == nil {
		t.Error("expected error for empty query")
	}
}
