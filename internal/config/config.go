// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jobsift/jobsift/internal/ingest"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Headless HeadlessConfig `mapstructure:"headless"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	DB       DBConfig       `mapstructure:"db"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// FetchConfig governs the static page fetcher.
type FetchConfig struct {
	UserAgent      string  `mapstructure:"user_agent"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	HostRPS        float64 `mapstructure:"host_rps"`
	HostBurst      int     `mapstructure:"host_burst"`
	MaxBodyBytes   int     `mapstructure:"max_body_bytes"`
}

// HeadlessConfig configures the headless rendering subsystem.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
	BodyThreshold int  `mapstructure:"body_threshold"`
}

// LLMConfig selects the extraction backend and its retry/throttle policy.
type LLMConfig struct {
	Backend        string  `mapstructure:"backend"`
	GeminiAPIKey   string  `mapstructure:"gemini_api_key"`
	GeminiModel    string  `mapstructure:"gemini_model"`
	GeminiDelayMs  int     `mapstructure:"gemini_delay_ms"`
	OpenAIAPIKey   string  `mapstructure:"openai_api_key"`
	OpenAIModel    string  `mapstructure:"openai_model"`
	OpenAIDelayMs  int     `mapstructure:"openai_delay_ms"`
	MaxRetries     int     `mapstructure:"max_retries"`
	BackoffFactor  float64 `mapstructure:"backoff_factor"`
	MaxPromptChars int     `mapstructure:"max_prompt_chars"`
}

// MinDelay returns the inter-request spacing for the configured backend.
func (c LLMConfig) MinDelay() time.Duration {
	if c.Backend == "openai" {
		return time.Duration(c.OpenAIDelayMs) * time.Millisecond
	}
	return time.Duration(c.GeminiDelayMs) * time.Millisecond
}

// LedgerConfig points at the processed-link log.
type LedgerConfig struct {
	Path string `mapstructure:"path"`
}

// DBConfig controls the JobStore implementation.
type DBConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// SnapshotConfig sets where raw page snapshots are archived.
type SnapshotConfig struct {
	Provider    string `mapstructure:"provider"`
	GCSBucket   string `mapstructure:"gcs_bucket"`
	LocalDir    string `mapstructure:"local_dir"`
	Prefix      string `mapstructure:"prefix"`
	ContentType string `mapstructure:"content_type"`
}

// NotifyConfig selects the admin alert channel.
type NotifyConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// LinkedInConfig controls the secondary search phase.
type LinkedInConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Titles    []string `mapstructure:"titles"`
	SearchURL string   `mapstructure:"search_url"`
}

// PipelineConfig lists crawl sources and run limits.
type PipelineConfig struct {
	Sources    []ingest.Source `mapstructure:"sources"`
	MaxPages   int             `mapstructure:"max_pages"`
	QueueDepth int             `mapstructure:"queue_depth"`
	LinkedIn   LinkedInConfig  `mapstructure:"linkedin"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JOBSIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	v.SetDefault("fetch.timeout_seconds", 20)
	v.SetDefault("fetch.host_rps", 1)
	v.SetDefault("fetch.host_burst", 2)
	v.SetDefault("fetch.max_body_bytes", 4<<20)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("headless.body_threshold", 2048)
	v.SetDefault("llm.backend", "gemini")
	v.SetDefault("llm.gemini_model", "gemini-2.0-flash")
	v.SetDefault("llm.gemini_delay_ms", 4000)
	v.SetDefault("llm.openai_model", "gpt-4o-mini")
	v.SetDefault("llm.openai_delay_ms", 1500)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.backoff_factor", 1.5)
	v.SetDefault("llm.max_prompt_chars", 18000)
	v.SetDefault("ledger.path", "data/processed_links.txt")
	v.SetDefault("db.provider", "memory")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("snapshot.provider", "memory")
	v.SetDefault("snapshot.prefix", "postings")
	v.SetDefault("snapshot.content_type", "text/html; charset=utf-8")
	v.SetDefault("notify.provider", "log")
	v.SetDefault("pipeline.max_pages", 25)
	v.SetDefault("pipeline.queue_depth", 16)
	v.SetDefault("pipeline.linkedin.enabled", false)
	v.SetDefault("pipeline.linkedin.search_url", "https://www.linkedin.com/jobs/search?keywords=%s")
	v.SetDefault("pipeline.linkedin.titles", []string{
		"Software Engineer",
		"Backend Developer",
		"Frontend Developer",
		"Data Engineer",
		"DevOps Engineer",
	})
}

// Validate enforces required values and reasonable limits. Failures here are
// fatal at startup; nothing retries a bad configuration.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	switch c.LLM.Backend {
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("llm.gemini_api_key is required for the gemini backend")
		}
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("llm.openai_api_key is required for the openai backend")
		}
	default:
		return fmt.Errorf("llm.backend must be gemini or openai, got %q", c.LLM.Backend)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must be >= 0")
	}
	if c.LLM.BackoffFactor < 1 {
		return fmt.Errorf("llm.backoff_factor must be >= 1")
	}
	if c.Ledger.Path == "" {
		return fmt.Errorf("ledger.path is required")
	}
	switch c.DB.Provider {
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for the postgres provider")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown db.provider %q", c.DB.Provider)
	}
	switch c.Snapshot.Provider {
	case "gcs":
		if c.Snapshot.GCSBucket == "" {
			return fmt.Errorf("snapshot.gcs_bucket is required for the gcs provider")
		}
	case "local":
		if c.Snapshot.LocalDir == "" {
			return fmt.Errorf("snapshot.local_dir is required for the local provider")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown snapshot.provider %q", c.Snapshot.Provider)
	}
	switch c.Notify.Provider {
	case "pubsub":
		if c.Notify.ProjectID == "" || c.Notify.Topic == "" {
			return fmt.Errorf("notify.project_id and notify.topic are required for the pubsub provider")
		}
	case "log":
	default:
		return fmt.Errorf("unknown notify.provider %q", c.Notify.Provider)
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	return nil
}

// FetchTimeout converts the fetch timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}
