// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/reason-search/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   map[string]string
		errMsg string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "tavily-api-key", "  tvly_abc123  \n")
				writeFile(t, dir, "semantic-scholar-api-key", "sk_xyz789")
				writeFile(t, dir, "openalex-email", "user@example.com\n")
				return dir
			},
			want: map[string]string{
				"tavily-api-key":           "tvly_abc123",
				"semantic-scholar-api-key": "sk_xyz789",
				"openalex-email":           "user@example.com",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				"anthropic-api-key": "valid-key",
			},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "tavily-api-key", "tvly_real")
				return dir
			},
			want: map[string]string{
				"tavily-api-key": "tvly_real",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "ak_123")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				"anthropic-api-key": "ak_123",
			},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir, zaptest.NewLogger(t))
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	// Create a file then remove read permission.
	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	// The good file should still be returned; the bad file is skipped with a warning.
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func TestApply(t *testing.T) {
	s := map[string]string{
		TavilyAPIKey:          "tvly",
		ExaAPIKey:             "exa",
		OpenAIAPIKey:          "sk-openai",
		AnthropicAPIKey:       "sk-ant",
		SemanticScholarAPIKey: "s2",
		OpenAlexEmail:         "me@example.com",
	}

	tests := []struct {
		name         string
		cfg          types.Config
		wantAI       string
		wantAcademic string
		wantWeb      string
	}{
		{
			name:         "defaults pick openai and exa",
			wantAI:       "sk-openai",
			wantAcademic: "exa",
			wantWeb:      "tvly",
		},
		{
			name: "anthropic and semantic scholar",
			cfg: types.Config{
				AI:       types.AIConfig{Provider: types.GenerationAnthropic},
				Academic: types.AcademicSearchConfig{Provider: types.AcademicSemanticScholar},
			},
			wantAI:       "sk-ant",
			wantAcademic: "s2",
			wantWeb:      "tvly",
		},
		{
			name: "openalex needs no key",
			cfg: types.Config{
				Academic: types.AcademicSearchConfig{Provider: types.AcademicOpenAlex},
			},
			wantAI:  "sk-openai",
			wantWeb: "tvly",
		},
		{
			name: "configured values win",
			cfg: types.Config{
				AI:  types.AIConfig{APIKey: "from-env"},
				Web: types.WebSearchConfig{APIKey: "from-config"},
			},
			wantAI:       "from-env",
			wantAcademic: "exa",
			wantWeb:      "from-config",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			Apply(&cfg, s)
			assert.Equal(t, tt.wantAI, cfg.AI.APIKey)
			assert.Equal(t, tt.wantAcademic, cfg.Academic.APIKey)
			assert.Equal(t, tt.wantWeb, cfg.Web.APIKey)
			assert.Equal(t, "me@example.com", cfg.Academic.Email)
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
