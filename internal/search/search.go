// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search implements the web and academic search providers used by
// research runs and the quick multi-query search path, together with the
// domain/URL deduplicator and the image validity probe.
package search

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/reason-search/pkg/types"
)

// WebSearcher queries a web search provider.
type WebSearcher interface {
	SearchWeb(ctx context.Context, query string, opts types.WebSearchOptions) (types.SearchResponse, error)
}

// AcademicSearcher queries an academic search provider.
type AcademicSearcher interface {
	SearchAcademic(ctx context.Context, query string, opts types.AcademicSearchOptions) (types.SearchResponse, error)
}

const defaultTimeout = 30 * time.Second

// newClient returns an http.Client honoring cfg.Timeout.
func newClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func setUserAgent(req *http.Request, ua string) {
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
}

// NewAcademic builds the academic searcher selected by cfg.Provider
// (default exa).
func NewAcademic(cfg types.AcademicSearchConfig) (AcademicSearcher, error) {
	var s AcademicSearcher
	switch cfg.Provider {
	case types.AcademicExa, "":
		s = NewExa(cfg)
	case types.AcademicOpenAlex:
		s = NewOpenAlex(cfg)
	case types.AcademicSemanticScholar:
		s = NewSemanticScholar(cfg)
	default:
		return nil, &UnknownProviderError{Provider: string(cfg.Provider)}
	}
	return PaceAcademic(s, cfg.RequestsPerSecond), nil
}

// NewWeb builds the Tavily web searcher, paced per cfg.
func NewWeb(cfg types.WebSearchConfig) WebSearcher {
	return PaceWeb(NewTavily(cfg), cfg.RequestsPerSecond)
}

// UnknownProviderError reports an unsupported provider name in config.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown academic provider %q", e.Provider)
}
