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

// tavilyEndpoint is the Tavily search endpoint. Declared as a var so tests
// can substitute an httptest server.
var tavilyEndpoint = "https://api.tavily.com/search"

// Tavily calls the Tavily search API.
type Tavily struct {
	APIKey     string
	Client     *http.Client
	UserAgent  string
	MaxRetries int
}

// NewTavily constructs a Tavily web searcher from cfg.
func NewTavily(cfg types.WebSearchConfig) *Tavily {
	return &Tavily{
		APIKey:     cfg.APIKey,
		Client:     newClient(cfg.HTTPConfig),
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
	}
}

type tavilyRequest struct {
	APIKey                   string   `json:"api_key"`
	Query                    string   `json:"query"`
	SearchDepth              string   `json:"search_depth,omitempty"`
	Topic                    string   `json:"topic,omitempty"`
	Days                     int      `json:"days,omitempty"`
	MaxResults               int      `json:"max_results,omitempty"`
	IncludeAnswer            bool     `json:"include_answer"`
	IncludeImages            bool     `json:"include_images"`
	IncludeImageDescriptions bool     `json:"include_image_descriptions"`
	ExcludeDomains           []string `json:"exclude_domains,omitempty"`
}

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		Content       string `json:"content"`
		PublishedDate string `json:"published_date"`
	} `json:"results"`
	Images []tavilyImage `json:"images"`
}

// tavilyImage is either a bare URL string or an object with a description,
// depending on include_image_descriptions.
type tavilyImage struct {
	URL         string
	Description string
}

func (t *tavilyImage) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		t.URL = s
		return nil
	}
	var obj struct {
		URL         string `json:"url"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	t.URL, t.Description = obj.URL, obj.Description
	return nil
}

// SearchWeb posts a query to Tavily.
func (t *Tavily) SearchWeb(ctx context.Context, query string, opts types.WebSearchOptions) (types.SearchResponse, error) {
	if strings.TrimSpace(t.APIKey) == "" {
		return types.SearchResponse{}, errors.New("tavily: API key is missing")
	}

	body := tavilyRequest{
		APIKey:                   t.APIKey,
		Query:                    query,
		SearchDepth:              string(opts.Depth),
		Topic:                    string(opts.Topic),
		Days:                     opts.Days,
		MaxResults:               opts.MaxResults,
		IncludeAnswer:            opts.IncludeAnswer,
		IncludeImages:            opts.IncludeImages,
		IncludeImageDescriptions: opts.IncludeImageDescriptions,
		ExcludeDomains:           opts.ExcludeDomains,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return types.SearchResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyEndpoint, bytes.NewReader(payload))
	if err != nil {
		return types.SearchResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setUserAgent(req, t.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, t.Client, req, t.MaxRetries)
	if err != nil {
		return types.SearchResponse{}, fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus("tavily", resp); err != nil {
		return types.SearchResponse{}, err
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return types.SearchResponse{}, fmt.Errorf("parsing tavily response: %w", err)
	}

	out := types.SearchResponse{Answer: tr.Answer}
	for _, r := range tr.Results {
		out.Results = append(out.Results, types.SearchResult{
			Source:        types.SourceWeb,
			Title:         r.Title,
			URL:           r.URL,
			Content:       r.Content,
			PublishedDate: r.PublishedDate,
		})
	}
	for _, img := range tr.Images {
		out.Images = append(out.Images, types.Image{URL: img.URL, Description: img.Description})
	}
	return out, nil
}
