// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/reason-search/pkg/types"
)

const (
	defaultQuickMaxResults  = 10
	defaultProbeConcurrency = 8
	newsDays                = 7
)

// ImageValidator decides whether a URL points at a reachable image.
type ImageValidator interface {
	Valid(ctx context.Context, url string) bool
}

// MultiSearchRequest holds parallel per-query parameter lists. A missing or
// zero entry at index i falls back to entry 0, then to the default (10
// results, general topic, basic depth).
type MultiSearchRequest struct {
	Queries        []string            `json:"queries" binding:"required,min=1"`
	MaxResults     []int               `json:"max_results"`
	Topics         []types.Topic       `json:"topics"`
	SearchDepths   []types.SearchDepth `json:"search_depths"`
	ExcludeDomains []string            `json:"exclude_domains"`
}

// QueryResult is the deduplicated outcome of one quick-search query.
type QueryResult struct {
	Query   string               `json:"query" yaml:"query"`
	Results []types.SearchResult `json:"results" yaml:"results"`
	Images  []types.Image        `json:"images" yaml:"images"`
}

// QueryCompletion reports that one query of a MultiSearch finished. Counts
// are the raw provider counts before deduplication.
type QueryCompletion struct {
	Query        string `json:"query"`
	Index        int    `json:"index"`
	Total        int    `json:"total"`
	Status       string `json:"status"`
	ResultsCount int    `json:"results_count"`
	ImagesCount  int    `json:"images_count"`
}

type multiSearchConfig struct {
	onComplete       func(QueryCompletion)
	probeConcurrency int
}

// MultiSearchOption configures MultiSearch.
type MultiSearchOption func(*multiSearchConfig)

// WithQueryCompletion registers fn to be called once per finished query.
// Calls are serialized but arrive in completion order, not query order.
func WithQueryCompletion(fn func(QueryCompletion)) MultiSearchOption {
	return func(c *multiSearchConfig) { c.onComplete = fn }
}

// WithProbeConcurrency bounds simultaneous image probes per query.
func WithProbeConcurrency(n int) MultiSearchOption {
	return func(c *multiSearchConfig) {
		if n > 0 {
			c.probeConcurrency = n
		}
	}
}

// MultiSearch runs every query against web concurrently and returns one
// QueryResult per query in request order. Results and images are
// deduplicated by URL and registered domain; images are kept only when
// prober confirms them and they carry a description; a nil prober skips
// the probe. Any provider error fails the whole call.
func MultiSearch(ctx context.Context, web WebSearcher, prober ImageValidator, req MultiSearchRequest, opts ...MultiSearchOption) ([]QueryResult, error) {
	if len(req.Queries) == 0 {
		return nil, errors.New("multi search: no queries")
	}
	cfg := multiSearchConfig{probeConcurrency: defaultProbeConcurrency}
	for _, opt := range opts {
		opt(&cfg)
	}

	var mu sync.Mutex
	notify := func(c QueryCompletion) {
		if cfg.onComplete == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		cfg.onComplete(c)
	}

	out := make([]QueryResult, len(req.Queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range req.Queries {
		g.Go(func() error {
			topic := pick(req.Topics, i, types.TopicGeneral)
			opts := types.WebSearchOptions{
				Depth:                    pick(req.SearchDepths, i, types.SearchDepthBasic),
				MaxResults:               pick(req.MaxResults, i, defaultQuickMaxResults),
				Topic:                    topic,
				IncludeAnswer:            true,
				IncludeImages:            true,
				IncludeImageDescriptions: true,
				ExcludeDomains:           req.ExcludeDomains,
			}
			if topic == types.TopicNews {
				opts.Days = newsDays
			}

			resp, err := web.SearchWeb(gctx, q, opts)
			if err != nil {
				return fmt.Errorf("query %d %q: %w", i, q, err)
			}
			notify(QueryCompletion{
				Query:        q,
				Index:        i,
				Total:        len(req.Queries),
				Status:       "completed",
				ResultsCount: len(resp.Results),
				ImagesCount:  len(resp.Images),
			})

			results := Deduplicate(resp.Results, func(r types.SearchResult) string { return r.URL })
			for j := range results {
				if topic != types.TopicNews {
					results[j].PublishedDate = ""
				}
			}

			images, err := validImages(gctx, prober, resp.Images, cfg.probeConcurrency)
			if err != nil {
				return err
			}
			out[i] = QueryResult{Query: q, Results: results, Images: images}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// validImages deduplicates, sanitizes, and probes images, keeping only
// described images whose probe succeeds. Input order is preserved.
func validImages(ctx context.Context, prober ImageValidator, in []types.Image, limit int) ([]types.Image, error) {
	candidates := Deduplicate(in, func(img types.Image) string { return img.URL })
	keep := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range candidates {
		candidates[i].URL = SanitizeURL(candidates[i].URL)
		if strings.TrimSpace(candidates[i].Description) == "" {
			continue
		}
		g.Go(func() error {
			keep[i] = prober == nil || prober.Valid(gctx, candidates[i].URL)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	images := make([]types.Image, 0, len(candidates))
	for i, img := range candidates {
		if keep[i] {
			images = append(images, img)
		}
	}
	return images, nil
}

// pick returns list[i], then list[0], then def, skipping zero values.
func pick[T comparable](list []T, i int, def T) T {
	var zero T
	if i < len(list) && list[i] != zero {
		return list[i]
	}
	if len(list) > 0 && list[0] != zero {
		return list[0]
	}
	return def
}
