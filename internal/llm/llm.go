// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm adapts text-generation APIs to structured object generation:
// every call asks the model for one JSON object shaped like a Go value.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/pdiddy/reason-search/pkg/types"
)

// Generator produces a JSON object for an ObjectRequest.
type Generator interface {
	GenerateObject(ctx context.Context, req types.ObjectRequest) (json.RawMessage, error)
}

const defaultGenerationRetries = 3

// New builds the generator selected by cfg.Provider, paced by
// cfg.RequestsPerSecond and wrapped with retries.
func New(cfg types.AIConfig, logger *zap.Logger) (Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s: API key is missing", providerName(cfg.Provider))
	}

	var g Generator
	switch cfg.Provider {
	case types.GenerationOpenAI, "":
		g = NewOpenAI(cfg)
	case types.GenerationAnthropic:
		g = NewClaude(cfg)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}

	retries := cfg.GenerationRetries
	if retries <= 0 {
		retries = defaultGenerationRetries
	}
	return NewRetrying(Pace(g, cfg.RequestsPerSecond), retries, logger), nil
}

func providerName(p types.GenerationProvider) string {
	if p == "" {
		return string(types.GenerationOpenAI)
	}
	return string(p)
}

// schemaFor derives a JSON schema from the value a request's Shape points at.
func schemaFor(shape any) (*jsonschema.Definition, error) {
	if shape == nil {
		return nil, fmt.Errorf("object request has no shape")
	}
	v := reflect.ValueOf(shape)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			v = reflect.New(v.Type().Elem()).Elem()
			continue
		}
		v = v.Elem()
	}
	schema, err := jsonschema.GenerateSchemaForType(v.Interface())
	if err != nil {
		return nil, fmt.Errorf("deriving schema: %w", err)
	}
	return schema, nil
}

// stripFences removes a surrounding Markdown code fence, which some models
// add around JSON despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
