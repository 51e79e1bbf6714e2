// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/reason-search/pkg/types"
)

// Recognized key files.
const (
	TavilyAPIKey          = "tavily-api-key"
	ExaAPIKey             = "exa-api-key"
	OpenAIAPIKey          = "openai-api-key"
	AnthropicAPIKey       = "anthropic-api-key"
	SemanticScholarAPIKey = "semantic-scholar-api-key"
	OpenAlexEmail         = "openalex-email"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills credentials in cfg that are still empty from the loaded
// secrets. Values already set by config or environment win. The academic
// API key is chosen by the configured provider.
func Apply(cfg *types.Config, s map[string]string) {
	setIfEmpty(&cfg.Web.APIKey, s[TavilyAPIKey])

	switch cfg.AI.Provider {
	case types.GenerationAnthropic:
		setIfEmpty(&cfg.AI.APIKey, s[AnthropicAPIKey])
	default:
		setIfEmpty(&cfg.AI.APIKey, s[OpenAIAPIKey])
	}

	switch cfg.Academic.Provider {
	case types.AcademicSemanticScholar:
		setIfEmpty(&cfg.Academic.APIKey, s[SemanticScholarAPIKey])
	case types.AcademicOpenAlex:
	default:
		setIfEmpty(&cfg.Academic.APIKey, s[ExaAPIKey])
	}
	setIfEmpty(&cfg.Academic.Email, s[OpenAlexEmail])
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
