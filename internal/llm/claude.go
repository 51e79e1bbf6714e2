// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/reason-search/internal/httputil"
	"github.com/pdiddy/reason-search/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

const (
	defaultClaudeModel = "claude-sonnet-4-5"
	claudeMaxTokens    = 8192
)

// Claude calls the Claude Messages API. The JSON schema derived from the
// request shape is appended to the prompt.
type Claude struct {
	APIKey string
	// Endpoint overrides claudeAPIURL when set.
	Endpoint   string
	Model      string
	UserAgent  string
	Client     *http.Client
	MaxRetries int
}

// NewClaude constructs a Claude generator from cfg.
func NewClaude(cfg types.AIConfig) *Claude {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	model := cfg.Model
	if model == "" {
		model = defaultClaudeModel
	}
	return &Claude{
		APIKey:     cfg.APIKey,
		Endpoint:   cfg.BaseURL,
		Model:      model,
		UserAgent:  cfg.UserAgent,
		Client:     &http.Client{Timeout: timeout},
		MaxRetries: cfg.MaxRetries,
	}
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system,omitempty"`
	Temperature float32         `json:"temperature"`
	Messages    []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content    []claudeContent `json:"content"`
	StopReason string          `json:"stop_reason"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// GenerateObject calls the Claude API and returns the first text block,
// stripped of code fences.
func (c *Claude) GenerateObject(ctx context.Context, req types.ObjectRequest) (json.RawMessage, error) {
	schema, err := schemaFor(req.Shape)
	if err != nil {
		return nil, err
	}
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}

	reqBody := claudeRequest{
		Model:       c.Model,
		MaxTokens:   claudeMaxTokens,
		System:      req.System,
		Temperature: req.Temperature,
		Messages: []claudeMessage{
			{Role: "user", Content: req.Prompt + "\n\nRespond with a JSON object that conforms to this JSON schema:\n" + string(schemaJSON)},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = claudeAPIURL
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.Client, httpReq, c.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus("Claude API", resp); err != nil {
		return nil, err
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return nil, fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		return json.RawMessage(stripFences(block.Text)), nil
	}
	return nil, fmt.Errorf("no text content in Claude API response (stop reason %q)", cResp.StopReason)
}
