// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/reason-search/internal/secrets"
	"github.com/pdiddy/reason-search/pkg/types"
)

const defaultUserAgent = "reason-search/0.1"

// setDefaults registers every config key so that REASON_SEARCH_* variables
// are seen by Unmarshal even when no config file sets the key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", string(types.GenerationOpenAI))
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.timeout", 2*time.Minute)
	v.SetDefault("ai.user_agent", defaultUserAgent)
	v.SetDefault("ai.max_retries", 5)
	v.SetDefault("ai.requests_per_second", 0)
	v.SetDefault("ai.generation_retries", 3)

	v.SetDefault("web.api_key", "")
	v.SetDefault("web.timeout", 30*time.Second)
	v.SetDefault("web.user_agent", defaultUserAgent)
	v.SetDefault("web.max_retries", 5)
	v.SetDefault("web.requests_per_second", 0)
	v.SetDefault("web.max_results", 10)

	v.SetDefault("academic.provider", string(types.AcademicExa))
	v.SetDefault("academic.api_key", "")
	v.SetDefault("academic.email", "")
	v.SetDefault("academic.timeout", 30*time.Second)
	v.SetDefault("academic.user_agent", defaultUserAgent)
	v.SetDefault("academic.max_retries", 5)
	v.SetDefault("academic.requests_per_second", 0)
	v.SetDefault("academic.max_results", 5)

	v.SetDefault("image_check.timeout", 5*time.Second)
	v.SetDefault("image_check.concurrency", 8)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.ttl", time.Hour)

	v.SetDefault("stream.redis_addr", "")
	v.SetDefault("stream.max_len", 256)
	v.SetDefault("stream.history_size", 256)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.run_timeout", 10*time.Minute)
}

// bindEnv maps ai.api_key to REASON_SEARCH_AI_API_KEY and so on.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("REASON_SEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// loadConfig decodes viper's merged settings and fills API keys that are
// still empty from .secrets/.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	secrets.Apply(&cfg, loadedSecrets)
	return cfg, nil
}
