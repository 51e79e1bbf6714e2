// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/reason-search/internal/httputil"
	"github.com/pdiddy/reason-search/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlex queries the OpenAlex Works API. It needs no API key.
type OpenAlex struct {
	Client *http.Client
	// Email is sent as mailto parameter for polite pool access.
	Email      string
	UserAgent  string
	MaxRetries int
}

// NewOpenAlex constructs an OpenAlex academic searcher from cfg.
func NewOpenAlex(cfg types.AcademicSearchConfig) *OpenAlex {
	return &OpenAlex{
		Client:     newClient(cfg.HTTPConfig),
		Email:      cfg.Email,
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
	}
}

// SearchAcademic queries OpenAlex. Result content is the work's abstract;
// OpenAlex has no generated summaries so opts.Summary is ignored.
func (b *OpenAlex) SearchAcademic(ctx context.Context, query string, opts types.AcademicSearchOptions) (types.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.SearchResponse{}, fmt.Errorf("empty OpenAlex query")
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	if maxResults > 200 {
		maxResults = 200
	}

	params := url.Values{
		"search":   {query},
		"per_page": {fmt.Sprintf("%d", maxResults)},
		"page":     {"1"},
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return types.SearchResponse{}, fmt.Errorf("creating request: %w", err)
	}
	setUserAgent(req, b.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, b.MaxRetries)
	if err != nil {
		return types.SearchResponse{}, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus("OpenAlex API", resp); err != nil {
		return types.SearchResponse{}, err
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return types.SearchResponse{}, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	var out types.SearchResponse
	for _, work := range oar.Results {
		content := reconstructAbstract(work.AbstractInvertedIndex)
		if content == "" {
			content = authorLine(work.Authorships)
		}
		out.Results = append(out.Results, types.SearchResult{
			Source:        types.SourceAcademic,
			Title:         work.Title,
			URL:           workURL(work),
			Content:       content,
			PublishedDate: work.PublicationDate,
		})
	}
	return out, nil
}

// workURL prefers the DOI link, then an open-access copy, then the
// OpenAlex record itself.
func workURL(w openAlexWork) string {
	switch {
	case w.DOI != "":
		return w.DOI
	case w.OpenAccess.OAURL != "":
		return w.OpenAccess.OAURL
	default:
		return w.ID
	}
}

func authorLine(authorships []openAlexAuthorship) string {
	var names []string
	for _, a := range authorships {
		if a.Author.DisplayName != "" {
			names = append(names, a.Author.DisplayName)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return "Authors: " + strings.Join(names, ", ")
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAlexOpenAccess struct {
	OAURL string `json:"oa_url"`
}
