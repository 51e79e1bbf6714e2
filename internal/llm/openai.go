// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/pdiddy/reason-search/pkg/types"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI generates objects through any OpenAI-compatible chat completions
// endpoint (OpenAI, xAI) using strict JSON-schema response formats.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI constructs an OpenAI-compatible generator from cfg.
func NewOpenAI(cfg types.AIConfig) *OpenAI {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	oc.HTTPClient = &http.Client{Timeout: timeout, Transport: withUserAgent(nil, cfg.UserAgent)}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(oc), model: model}
}

// GenerateObject asks the model for an object matching req.Shape.
func (o *OpenAI) GenerateObject(ctx context.Context, req types.ObjectRequest) (json.RawMessage, error) {
	schema, err := schemaFor(req.Shape)
	if err != nil {
		return nil, err
	}

	// A zero temperature is dropped by the client's omitempty encoding.
	temperature := req.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Name,
				Schema: schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices")
	}

	content := stripFences(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("OpenAI returned empty content (finish reason %q)", resp.Choices[0].FinishReason)
	}
	return json.RawMessage(content), nil
}
