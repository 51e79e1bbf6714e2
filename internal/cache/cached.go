// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdiddy/reason-search/internal/metrics"
	"github.com/pdiddy/reason-search/internal/search"
	"github.com/pdiddy/reason-search/pkg/types"
)

// Cache failures never fail a search; they are logged and the provider is
// called as if the entry were missing.

// CachedWeb serves web searches from a Store when possible.
type CachedWeb struct {
	next     search.WebSearcher
	store    *Store
	provider string
	logger   *zap.Logger
}

// Web wraps next. A nil store returns next unchanged.
func Web(next search.WebSearcher, store *Store, logger *zap.Logger) search.WebSearcher {
	if store == nil {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedWeb{next: next, store: store, provider: "web", logger: logger}
}

// SearchWeb returns a cached response or calls the provider and caches a
// successful answer.
func (c *CachedWeb) SearchWeb(ctx context.Context, query string, opts types.WebSearchOptions) (types.SearchResponse, error) {
	key, resp, ok := lookup(ctx, c.store, c.provider, query, opts, c.logger)
	if ok {
		return resp, nil
	}
	resp, err := c.next.SearchWeb(ctx, query, opts)
	if err != nil {
		return resp, err
	}
	save(ctx, c.store, key, c.provider, query, resp, c.logger)
	return resp, nil
}

// CachedAcademic serves academic searches from a Store when possible.
type CachedAcademic struct {
	next     search.AcademicSearcher
	store    *Store
	provider string
	logger   *zap.Logger
}

// Academic wraps next. A nil store returns next unchanged.
func Academic(next search.AcademicSearcher, store *Store, logger *zap.Logger) search.AcademicSearcher {
	if store == nil {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedAcademic{next: next, store: store, provider: "academic", logger: logger}
}

// SearchAcademic returns a cached response or calls the provider and caches
// a successful answer.
func (c *CachedAcademic) SearchAcademic(ctx context.Context, query string, opts types.AcademicSearchOptions) (types.SearchResponse, error) {
	key, resp, ok := lookup(ctx, c.store, c.provider, query, opts, c.logger)
	if ok {
		return resp, nil
	}
	resp, err := c.next.SearchAcademic(ctx, query, opts)
	if err != nil {
		return resp, err
	}
	save(ctx, c.store, key, c.provider, query, resp, c.logger)
	return resp, nil
}

func lookup(ctx context.Context, s *Store, provider, query string, opts any, logger *zap.Logger) (string, types.SearchResponse, bool) {
	key, err := Key(provider, query, opts)
	if err != nil {
		logger.Warn("cache key", zap.String("provider", provider), zap.Error(err))
		metrics.CacheLookups.WithLabelValues(provider, "error").Inc()
		return "", types.SearchResponse{}, false
	}
	resp, ok, err := s.Get(ctx, key)
	switch {
	case err != nil:
		logger.Warn("cache read failed", zap.String("provider", provider), zap.Error(err))
		metrics.CacheLookups.WithLabelValues(provider, "error").Inc()
		return key, types.SearchResponse{}, false
	case ok:
		logger.Debug("cache hit", zap.String("provider", provider), zap.String("query", query))
		metrics.CacheLookups.WithLabelValues(provider, "hit").Inc()
		return key, resp, true
	default:
		metrics.CacheLookups.WithLabelValues(provider, "miss").Inc()
		return key, types.SearchResponse{}, false
	}
}

func save(ctx context.Context, s *Store, key, provider, query string, resp types.SearchResponse, logger *zap.Logger) {
	if key == "" {
		return
	}
	if err := s.Put(ctx, key, provider, query, resp); err != nil {
		logger.Warn("cache write failed", zap.String("provider", provider), zap.Error(err))
	}
}
