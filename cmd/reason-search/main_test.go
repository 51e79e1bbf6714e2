// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/reason-search/internal/secrets"
	"github.com/pdiddy/reason-search/pkg/types"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	loadedSecrets = nil
	cfg, err := loadConfig(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, types.GenerationOpenAI, cfg.AI.Provider)
	assert.Equal(t, 2*time.Minute, cfg.AI.Timeout)
	assert.Equal(t, 3, cfg.AI.GenerationRetries)
	assert.Equal(t, 10, cfg.Web.MaxResults)
	assert.Equal(t, defaultUserAgent, cfg.Web.UserAgent)
	assert.Equal(t, types.AcademicExa, cfg.Academic.Provider)
	assert.Equal(t, 5, cfg.Academic.MaxResults)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, int64(256), cfg.Stream.MaxLen)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadConfigEnvAndSecrets(t *testing.T) {
	t.Setenv("REASON_SEARCH_AI_PROVIDER", "anthropic")
	t.Setenv("REASON_SEARCH_WEB_TIMEOUT", "7s")
	t.Setenv("REASON_SEARCH_ACADEMIC_PROVIDER", "openalex")
	t.Setenv("REASON_SEARCH_WEB_API_KEY", "tvly-env")

	loadedSecrets = map[string]string{
		secrets.TavilyAPIKey:    "tvly-file",
		secrets.AnthropicAPIKey: "ant-file",
		secrets.OpenAlexEmail:   "me@example.org",
	}
	t.Cleanup(func() { loadedSecrets = nil })

	cfg, err := loadConfig(newTestViper())
	require.NoError(t, err)
	assert.Equal(t, types.GenerationAnthropic, cfg.AI.Provider)
	assert.Equal(t, 7*time.Second, cfg.Web.Timeout)
	assert.Equal(t, "tvly-env", cfg.Web.APIKey, "environment wins over .secrets")
	assert.Equal(t, "ant-file", cfg.AI.APIKey)
	assert.Equal(t, types.AcademicOpenAlex, cfg.Academic.Provider)
	assert.Equal(t, "me@example.org", cfg.Academic.Email)
}

func TestBuildProvidersRequiresWebKey(t *testing.T) {
	_, err := buildProviders(types.Config{}, false)
	assert.ErrorContains(t, err, "Tavily API key is missing")
}

func TestBuildProviders(t *testing.T) {
	cfg := types.Config{
		Web:   types.WebSearchConfig{APIKey: "tvly"},
		Cache: types.CacheConfig{Enabled: true},
	}
	p, err := buildProviders(cfg, false)
	require.NoError(t, err)
	defer p.Close()
	assert.NotNil(t, p.store)
	assert.Nil(t, p.gen)

	_, err = buildProviders(cfg, true)
	assert.ErrorContains(t, err, "API key is missing")

	cfg.Academic.Provider = "scholarly"
	_, err = buildProviders(cfg, false)
	assert.ErrorContains(t, err, "unknown academic provider")
}

func sampleEvents() []types.ProgressEvent {
	return []types.ProgressEvent{
		{RunID: "r", Seq: 1, ID: "research-plan", Kind: types.KindPlan, Status: types.StatusRunning, Title: "Research Plan", TotalSteps: 0},
		{RunID: "r", Seq: 2, ID: "research-plan", Kind: types.KindPlan, Status: types.StatusCompleted, Title: "Research Plan", Overwrite: true, TotalSteps: 7},
		{RunID: "r", Seq: 3, ID: "research-progress", Kind: types.KindProgress, Status: types.StatusCompleted, IsComplete: true, CompletedSteps: 7, TotalSteps: 7},
	}
}

func TestProgressSinkJSONL(t *testing.T) {
	var stdout, stderr bytes.Buffer
	sink, finish, err := progressSink("jsonl", &stdout, &stderr)
	require.NoError(t, err)
	for _, e := range sampleEvents() {
		sink.Emit(e)
	}
	require.NoError(t, finish(&types.ResearchResult{RunID: "r", Topic: "t"}))

	sc := bufio.NewScanner(&stdout)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.Len(t, lines, 4)
	var last types.ResearchResult
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &last))
	assert.Equal(t, "t", last.Topic)
	assert.Empty(t, stderr.String())
}

func TestProgressSinkYAML(t *testing.T) {
	var stdout, stderr bytes.Buffer
	sink, finish, err := progressSink("yaml", &stdout, &stderr)
	require.NoError(t, err)
	for _, e := range sampleEvents() {
		sink.Emit(e)
	}
	require.NoError(t, finish(&types.ResearchResult{RunID: "r", Topic: "t", Depth: types.DepthBasic}))

	assert.Equal(t, 3, strings.Count(stderr.String(), "\n"))
	var out types.ResearchResult
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &out))
	assert.Equal(t, "r", out.RunID)
	assert.Equal(t, types.DepthBasic, out.Depth)
}

func TestProgressSinkBoard(t *testing.T) {
	var stdout, stderr bytes.Buffer
	sink, _, err := progressSink("board", &stdout, &stderr)
	require.NoError(t, err)
	for _, e := range sampleEvents() {
		sink.Emit(e)
	}
	b := sink.(*boardPrinter)
	cards := b.board.Cards()
	require.Len(t, cards, 2, "the completed plan event replaces its running card")
	assert.Equal(t, types.StatusCompleted, cards[0].Status)
	assert.Contains(t, stderr.String(), "== 7/7 steps ==")
}

func TestProgressSinkUnknownFormat(t *testing.T) {
	_, _, err := progressSink("csv", nil, nil)
	assert.ErrorContains(t, err, "unknown format")
}

func TestEventLine(t *testing.T) {
	line := eventLine(types.ProgressEvent{
		Status: types.StatusFailed, Title: "Research Progress", Message: "Research failed",
		Error: "boom", CompletedSteps: 3, TotalSteps: 7,
	})
	assert.Equal(t, "[3/7] failed    Research Progress: Research failed (boom)", line)
}
