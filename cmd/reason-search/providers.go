// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pdiddy/reason-search/internal/cache"
	"github.com/pdiddy/reason-search/internal/llm"
	"github.com/pdiddy/reason-search/internal/research"
	"github.com/pdiddy/reason-search/internal/search"
	"github.com/pdiddy/reason-search/internal/stream"
	"github.com/pdiddy/reason-search/pkg/types"
)

// providers bundles the capability adapters a command needs.
type providers struct {
	gen      llm.Generator
	web      search.WebSearcher
	academic search.AcademicSearcher
	prober   *search.ImageProber
	store    *cache.Store
}

// buildProviders wires search adapters, optionally behind the response
// cache, and the generator when withGenerator is set.
func buildProviders(cfg types.Config, withGenerator bool) (*providers, error) {
	if cfg.Web.APIKey == "" {
		return nil, fmt.Errorf("web search: Tavily API key is missing (set web.api_key, REASON_SEARCH_WEB_API_KEY, or .secrets/tavily-api-key)")
	}

	p := &providers{prober: search.NewImageProber(cfg.ImageCheck)}

	academic, err := search.NewAcademic(cfg.Academic)
	if err != nil {
		return nil, err
	}
	p.web = search.NewWeb(cfg.Web)
	p.academic = academic

	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache)
		if err != nil {
			return nil, err
		}
		p.store = store
		p.web = cache.Web(p.web, store, logger)
		p.academic = cache.Academic(p.academic, store, logger)
	}

	if withGenerator {
		gen, err := llm.New(cfg.AI, logger)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.gen = gen
	}
	return p, nil
}

// Close releases the cache database, if open.
func (p *providers) Close() {
	if p.store == nil {
		return
	}
	if err := p.store.Close(); err != nil {
		logger.Warn("closing cache", zap.Error(err))
	}
}

func newEngine(cfg types.Config, p *providers) *research.Engine {
	return research.NewEngine(p.gen, p.web, p.academic,
		research.WithLogger(logger),
		research.WithProviderLimits(cfg.Web.MaxResults, cfg.Academic.MaxResults),
	)
}

// newRedisSink returns a Redis publisher when stream.redis_addr is set.
func newRedisSink(cfg types.StreamConfig) (*stream.Redis, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}
	closer := func() {
		if err := client.Close(); err != nil {
			logger.Warn("closing redis client", zap.Error(err))
		}
	}
	return stream.NewRedis(client, cfg.MaxLen, logger), closer, nil
}
