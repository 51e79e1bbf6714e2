// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/reason-search/internal/httputil"
	"github.com/pdiddy/reason-search/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,url,externalIds,publicationDate,tldr"

// SemanticScholar queries the Semantic Scholar Graph API.
type SemanticScholar struct {
	Client     *http.Client
	APIKey     string
	UserAgent  string
	MaxRetries int
}

// NewSemanticScholar constructs a Semantic Scholar academic searcher from cfg.
func NewSemanticScholar(cfg types.AcademicSearchConfig) *SemanticScholar {
	return &SemanticScholar{
		Client:     newClient(cfg.HTTPConfig),
		APIKey:     cfg.APIKey,
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
	}
}

// SearchAcademic queries Semantic Scholar. With opts.Summary the content is
// the paper's TLDR when one exists, falling back to the abstract.
func (b *SemanticScholar) SearchAcademic(ctx context.Context, query string, opts types.AcademicSearchOptions) (types.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.SearchResponse{}, fmt.Errorf("empty Semantic Scholar query")
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", maxResults)},
		"fields": {semanticFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return types.SearchResponse{}, fmt.Errorf("creating request: %w", err)
	}
	setUserAgent(req, b.UserAgent)
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, b.MaxRetries)
	if err != nil {
		return types.SearchResponse{}, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus("Semantic Scholar API", resp); err != nil {
		return types.SearchResponse{}, err
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return types.SearchResponse{}, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var out types.SearchResponse
	for _, paper := range sr.Data {
		content := paper.Abstract
		if opts.Summary && paper.TLDR != nil && paper.TLDR.Text != "" {
			content = paper.TLDR.Text
		}
		out.Results = append(out.Results, types.SearchResult{
			Source:        types.SourceAcademic,
			Title:         paper.Title,
			URL:           paperURL(paper),
			Content:       content,
			PublishedDate: paper.PublicationDate,
		})
	}
	return out, nil
}

// paperURL prefers the DOI, then arXiv, then the Semantic Scholar page.
func paperURL(p semanticPaper) string {
	switch {
	case p.ExternalIDs.DOI != "":
		return "https://doi.org/" + p.ExternalIDs.DOI
	case p.ExternalIDs.ArXiv != "":
		return "https://arxiv.org/abs/" + p.ExternalIDs.ArXiv
	case p.URL != "":
		return p.URL
	default:
		return "https://www.semanticscholar.org/paper/" + p.PaperID
	}
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	URL             string              `json:"url"`
	PublicationDate string              `json:"publicationDate"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
	TLDR            *struct {
		Text string `json:"text"`
	} `json:"tldr"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}
