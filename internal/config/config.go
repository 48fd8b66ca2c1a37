// Package config defines the tcodefinder configuration schema.
//
// Configuration is an explicit struct passed into constructors. Sources, in
// priority order: env vars (TCODEFINDER_*), config file, built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete tcodefinder configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Catalog    CatalogConfig    `yaml:"catalog" json:"catalog"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Model      ModelConfig      `yaml:"model" json:"model"`
	Cache      CacheConfig      `yaml:"cache" json:"cache"`
	WebSearch  WebSearchConfig  `yaml:"web_search" json:"web_search"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// CatalogConfig configures the catalog store.
type CatalogConfig struct {
	// Path is the SQLite database holding transaction codes, feedback votes,
	// and the country alias table.
	Path string `yaml:"path" json:"path"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// OllamaHost is the Ollama API endpoint (default: http://localhost:11434).
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`
	// Model is the embedding model name.
	Model string `yaml:"model" json:"model"`
	// Dimensions is the embedding dimension (0 = auto-detect).
	Dimensions int `yaml:"dimensions" json:"dimensions"`
	// CacheSize is the number of query embeddings kept in the LRU cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
	// Timeout bounds a single embed call.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// ModelConfig configures the reasoning model used for query expansion,
// re-ranking, judging, and deep reasoning. An empty BaseURL disables all
// model-backed stages (ConfigurationAbsent, not an error).
type ModelConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	APIKey  string `yaml:"api_key" json:"api_key"`
	Model   string `yaml:"model" json:"model"`

	// Per-stage call budgets. Judge gets the shortest, deep reasoning the longest.
	ExpansionTimeout time.Duration `yaml:"expansion_timeout" json:"expansion_timeout"`
	RerankTimeout    time.Duration `yaml:"rerank_timeout" json:"rerank_timeout"`
	JudgeTimeout     time.Duration `yaml:"judge_timeout" json:"judge_timeout"`
	ReasoningTimeout time.Duration `yaml:"reasoning_timeout" json:"reasoning_timeout"`
}

// Enabled reports whether a reasoning model is configured.
func (m ModelConfig) Enabled() bool {
	return m.BaseURL != "" && m.Model != ""
}

// CacheConfig configures the two-tier response cache.
type CacheConfig struct {
	// MemorySize is the in-process LRU capacity (entries).
	MemorySize int `yaml:"memory_size" json:"memory_size"`
	// RedisURL enables the shared write-through tier when non-empty
	// (e.g., redis://localhost:6379/0).
	RedisURL string `yaml:"redis_url" json:"redis_url"`
	// ResultTTL is how long ranked responses stay cached.
	ResultTTL time.Duration `yaml:"result_ttl" json:"result_ttl"`
	// ExpansionTTL is how long expanded queries stay cached. Abbreviation
	// mappings are stable, so this is long.
	ExpansionTTL time.Duration `yaml:"expansion_ttl" json:"expansion_ttl"`
	// LocaleTTL is how long the country alias table stays cached.
	LocaleTTL time.Duration `yaml:"locale_ttl" json:"locale_ttl"`
	// FeedbackTTL is how long aggregated vote counts stay cached.
	FeedbackTTL time.Duration `yaml:"feedback_ttl" json:"feedback_ttl"`
}

// WebSearchConfig configures the web-validation fallback providers.
// A provider with an empty key is disabled, not an error.
type WebSearchConfig struct {
	TavilyAPIKey string `yaml:"tavily_api_key" json:"tavily_api_key"`
	BraveAPIKey  string `yaml:"brave_api_key" json:"brave_api_key"`

	// ProviderTimeout bounds each provider call individually.
	ProviderTimeout time.Duration `yaml:"provider_timeout" json:"provider_timeout"`
	// OuterTimeout bounds the whole fallback; when it fires the fallback is
	// skipped entirely.
	OuterTimeout time.Duration `yaml:"outer_timeout" json:"outer_timeout"`
}

// SearchConfig configures pipeline parameters.
type SearchConfig struct {
	// DefaultLimit is the default number of results (default: 10).
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`
	// MaxLimit is the maximum allowed results (default: 50).
	MaxLimit int `yaml:"max_limit" json:"max_limit"`
	// StrategyLimit caps candidates per lexical strategy (default: 25).
	StrategyLimit int `yaml:"strategy_limit" json:"strategy_limit"`
	// WebFallbackThreshold triggers web validation when the top confidence is
	// below it (default: 0.5).
	WebFallbackThreshold float64 `yaml:"web_fallback_threshold" json:"web_fallback_threshold"`
	// RequestTimeout is the overall per-request deadline.
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// ServerConfig configures the HTTP API server started by `tcodefinder serve`.
type ServerConfig struct {
	// Addr is the listen address (default ":8642").
	Addr string `yaml:"addr" json:"addr"`
	// ShutdownTimeout bounds graceful shutdown; in-flight requests past it are
	// dropped.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Catalog: CatalogConfig{
			Path: defaultCatalogPath(),
		},
		Embeddings: EmbeddingsConfig{
			OllamaHost: "http://localhost:11434",
			Model:      "nomic-embed-text",
			CacheSize:  1000,
			Timeout:    5 * time.Second,
		},
		Model: ModelConfig{
			Model:            "gpt-4o-mini",
			ExpansionTimeout: 3 * time.Second,
			RerankTimeout:    8 * time.Second,
			JudgeTimeout:     5 * time.Second,
			ReasoningTimeout: 15 * time.Second,
		},
		Cache: CacheConfig{
			MemorySize:   2048,
			ResultTTL:    15 * time.Minute,
			ExpansionTTL: 7 * 24 * time.Hour,
			LocaleTTL:    24 * time.Hour,
			FeedbackTTL:  10 * time.Minute,
		},
		WebSearch: WebSearchConfig{
			ProviderTimeout: 6 * time.Second,
			OuterTimeout:    10 * time.Second,
		},
		Search: SearchConfig{
			DefaultLimit:         10,
			MaxLimit:             50,
			StrategyLimit:        25,
			WebFallbackThreshold: 0.5,
			RequestTimeout:       30 * time.Second,
		},
		Server: ServerConfig{
			Addr:            ":8642",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the given path, falling back to defaults for
// unset fields, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			// Missing file means defaults; only an explicit parse error is fatal.
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies TCODEFINDER_* environment variables.
// Env vars take priority over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TCODEFINDER_CATALOG_PATH"); v != "" {
		c.Catalog.Path = v
	}
	if v := os.Getenv("TCODEFINDER_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("TCODEFINDER_MODEL_BASE_URL"); v != "" {
		c.Model.BaseURL = v
	}
	if v := os.Getenv("TCODEFINDER_MODEL_API_KEY"); v != "" {
		c.Model.APIKey = v
	}
	if v := os.Getenv("TCODEFINDER_MODEL"); v != "" {
		c.Model.Model = v
	}
	if v := os.Getenv("TCODEFINDER_REDIS_URL"); v != "" {
		c.Cache.RedisURL = v
	}
	if v := os.Getenv("TCODEFINDER_TAVILY_API_KEY"); v != "" {
		c.WebSearch.TavilyAPIKey = v
	}
	if v := os.Getenv("TCODEFINDER_BRAVE_API_KEY"); v != "" {
		c.WebSearch.BraveAPIKey = v
	}
	if v := os.Getenv("TCODEFINDER_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TCODEFINDER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TCODEFINDER_DEFAULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.DefaultLimit = n
		}
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search.default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("search.max_limit (%d) must be >= search.default_limit (%d)",
			c.Search.MaxLimit, c.Search.DefaultLimit)
	}
	if c.Search.WebFallbackThreshold < 0 || c.Search.WebFallbackThreshold > 1 {
		return fmt.Errorf("search.web_fallback_threshold must be in [0,1], got %f",
			c.Search.WebFallbackThreshold)
	}
	if c.Cache.MemorySize <= 0 {
		return fmt.Errorf("cache.memory_size must be positive, got %d", c.Cache.MemorySize)
	}
	return nil
}

// DefaultConfigPath returns the default config file location
// (~/.tcodefinder/config.yaml).
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".tcodefinder", "config.yaml")
	}
	return filepath.Join(home, ".tcodefinder", "config.yaml")
}

func defaultCatalogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".tcodefinder", "catalog.db")
	}
	return filepath.Join(home, ".tcodefinder", "catalog.db")
}
