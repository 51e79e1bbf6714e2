// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/reason-search/internal/httputil"
	"github.com/pdiddy/reason-search/pkg/types"
)

// exaEndpoint is the Exa search endpoint. Declared as a var so tests can
// substitute an httptest server.
var exaEndpoint = "https://api.exa.ai/search"

// exaCategory restricts Exa to scholarly content.
const exaCategory = "research paper"

// Exa queries the Exa neural search API for research papers.
type Exa struct {
	APIKey     string
	Client     *http.Client
	UserAgent  string
	MaxRetries int
}

// NewExa constructs an Exa academic searcher from cfg.
func NewExa(cfg types.AcademicSearchConfig) *Exa {
	return &Exa{
		APIKey:     cfg.APIKey,
		Client:     newClient(cfg.HTTPConfig),
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
	}
}

type exaRequest struct {
	Query      string      `json:"query"`
	Type       string      `json:"type"`
	Category   string      `json:"category"`
	NumResults int         `json:"numResults,omitempty"`
	Contents   exaContents `json:"contents"`
}

type exaContents struct {
	Summary bool `json:"summary,omitempty"`
	Text    bool `json:"text,omitempty"`
}

type exaResponse struct {
	Results []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		PublishedDate string `json:"publishedDate"`
		Summary       string `json:"summary"`
		Text          string `json:"text"`
	} `json:"results"`
}

// SearchAcademic runs a research-paper search. With opts.Summary the result
// content is Exa's generated summary; otherwise it is the page text.
func (e *Exa) SearchAcademic(ctx context.Context, query string, opts types.AcademicSearchOptions) (types.SearchResponse, error) {
	if strings.TrimSpace(e.APIKey) == "" {
		return types.SearchResponse{}, errors.New("exa: API key is missing")
	}

	payload, err := json.Marshal(exaRequest{
		Query:      query,
		Type:       "auto",
		Category:   exaCategory,
		NumResults: opts.MaxResults,
		Contents:   exaContents{Summary: opts.Summary, Text: !opts.Summary},
	})
	if err != nil {
		return types.SearchResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, exaEndpoint, bytes.NewReader(payload))
	if err != nil {
		return types.SearchResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.APIKey)
	setUserAgent(req, e.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, e.Client, req, e.MaxRetries)
	if err != nil {
		return types.SearchResponse{}, fmt.Errorf("exa request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus("exa", resp); err != nil {
		return types.SearchResponse{}, err
	}

	var er exaResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return types.SearchResponse{}, fmt.Errorf("parsing exa response: %w", err)
	}

	var out types.SearchResponse
	for _, r := range er.Results {
		content := r.Summary
		if content == "" {
			content = r.Text
		}
		out.Results = append(out.Results, types.SearchResult{
			Source:        types.SourceAcademic,
			Title:         r.Title,
			URL:           r.URL,
			Content:       content,
			PublishedDate: r.PublishedDate,
		})
	}
	return out, nil
}
