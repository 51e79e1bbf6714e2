package types

import "time"

// HTTPConfig holds shared HTTP settings used by provider clients.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "reason-search/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 and 503 responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RequestsPerSecond paces outbound calls to one provider. Zero disables pacing.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// GenerationProvider identifies the text-generation backend.
type GenerationProvider string

const (
	GenerationOpenAI    GenerationProvider = "openai"
	GenerationAnthropic GenerationProvider = "anthropic"
)

// AIConfig holds settings for the text-generation backend.
type AIConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Provider selects the backend: openai (any OpenAI-compatible endpoint,
	// including xAI) or anthropic.
	Provider GenerationProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the AI model identifier (e.g. "gpt-4o-mini", "grok-beta").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// BaseURL overrides the provider endpoint (e.g. "https://api.x.ai/v1").
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// GenerationRetries is the number of retry attempts for failed generation
	// calls (default 3).
	GenerationRetries int `json:"generation_retries" yaml:"generation_retries" mapstructure:"generation_retries"`
}

// WebSearchConfig holds settings for the web search provider.
type WebSearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// APIKey is the Tavily API key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxResults is the provider ceiling for one query (default 10).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// AcademicProvider identifies the academic search backend.
type AcademicProvider string

const (
	AcademicExa             AcademicProvider = "exa"
	AcademicOpenAlex        AcademicProvider = "openalex"
	AcademicSemanticScholar AcademicProvider = "semantic_scholar"
)

// AcademicSearchConfig holds settings for the academic search provider.
type AcademicSearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Provider selects the backend: exa, openalex, or semantic_scholar.
	Provider AcademicProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// APIKey is the Exa or Semantic Scholar API key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Email is sent to OpenAlex for polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`

	// MaxResults is the provider ceiling for one query (default 5).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ImageCheckConfig controls image URL validation on the quick search path.
type ImageCheckConfig struct {
	// Timeout bounds a single HEAD probe (default 5s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Concurrency bounds simultaneous probes (default 8).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// CacheConfig controls the provider response cache.
type CacheConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Path is the SQLite database file. Empty keeps the cache in memory for
	// the life of the process.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// TTL is how long a cached response stays valid (default 1h).
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// StreamConfig controls where progress events are published.
type StreamConfig struct {
	// RedisAddr enables publishing to Redis Streams when set.
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`

	// MaxLen caps each run's Redis stream (default 256).
	MaxLen int64 `json:"max_len" yaml:"max_len" mapstructure:"max_len"`

	// HistorySize is the in-memory replay buffer per run (default 256).
	HistorySize int `json:"history_size" yaml:"history_size" mapstructure:"history_size"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// RunTimeout abandons a research run after this long (default 10m).
	RunTimeout time.Duration `json:"run_timeout" yaml:"run_timeout" mapstructure:"run_timeout"`
}

// Config groups all settings for reason-search.
type Config struct {
	AI         AIConfig             `json:"ai" yaml:"ai" mapstructure:"ai"`
	Web        WebSearchConfig      `json:"web" yaml:"web" mapstructure:"web"`
	Academic   AcademicSearchConfig `json:"academic" yaml:"academic" mapstructure:"academic"`
	ImageCheck ImageCheckConfig     `json:"image_check" yaml:"image_check" mapstructure:"image_check"`
	Cache      CacheConfig          `json:"cache" yaml:"cache" mapstructure:"cache"`
	Stream     StreamConfig         `json:"stream" yaml:"stream" mapstructure:"stream"`
	Server     ServerConfig         `json:"server" yaml:"server" mapstructure:"server"`
}
