// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/pdiddy/reason-search/pkg/types"
)

// newLimiter returns a limiter for rps requests per second with a burst of
// one, or nil when rps is not positive.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// PacedWeb spaces calls to a web searcher to at most rps per second.
type PacedWeb struct {
	next    WebSearcher
	limiter *rate.Limiter
}

// PaceWeb wraps next with a limiter. A non-positive rps returns next as is.
func PaceWeb(next WebSearcher, rps float64) WebSearcher {
	l := newLimiter(rps)
	if l == nil {
		return next
	}
	return &PacedWeb{next: next, limiter: l}
}

// SearchWeb waits for a token, then delegates.
func (p *PacedWeb) SearchWeb(ctx context.Context, query string, opts types.WebSearchOptions) (types.SearchResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return types.SearchResponse{}, err
	}
	return p.next.SearchWeb(ctx, query, opts)
}

// PacedAcademic spaces calls to an academic searcher to at most rps per
// second.
type PacedAcademic struct {
	next    AcademicSearcher
	limiter *rate.Limiter
}

// PaceAcademic wraps next with a limiter. A non-positive rps returns next as
// is.
func PaceAcademic(next AcademicSearcher, rps float64) AcademicSearcher {
	l := newLimiter(rps)
	if l == nil {
		return next
	}
	return &PacedAcademic{next: next, limiter: l}
}

// SearchAcademic waits for a token, then delegates.
func (p *PacedAcademic) SearchAcademic(ctx context.Context, query string, opts types.AcademicSearchOptions) (types.SearchResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return types.SearchResponse{}, err
	}
	return p.next.SearchAcademic(ctx, query, opts)
}
