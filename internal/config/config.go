package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the discovery service.
// Environment variables are automatically parsed from the DISCOVERY_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// Counter store backend: auto, redis or memory. "auto" resolves to redis
	// when REDIS_ADDR is set, memory otherwise.
	CounterBackend string `envconfig:"COUNTER_BACKEND" default:"auto"`
	RedisAddr      string `envconfig:"REDIS_ADDR" default:""`
	RedisPassword  string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`

	// Rate limit policies per endpoint type (points per window).
	SearchLimit    int           `envconfig:"SEARCH_LIMIT" default:"5"`
	SearchWindow   time.Duration `envconfig:"SEARCH_WINDOW" default:"60s"`
	SearchBlock    time.Duration `envconfig:"SEARCH_BLOCK" default:"300s"`
	ProgressLimit  int           `envconfig:"PROGRESS_LIMIT" default:"10"`
	ProgressWindow time.Duration `envconfig:"PROGRESS_WINDOW" default:"60s"`
	ImportLimit    int           `envconfig:"IMPORT_LIMIT" default:"10"`
	ImportWindow   time.Duration `envconfig:"IMPORT_WINDOW" default:"60s"`
	ImportBlock    time.Duration `envconfig:"IMPORT_BLOCK" default:"600s"`
	HealthLimit    int           `envconfig:"HEALTH_LIMIT" default:"20"`
	HealthWindow   time.Duration `envconfig:"HEALTH_WINDOW" default:"60s"`

	// Email validation heuristics. Weights and thresholds are tunable; the
	// defaults mirror the production values, not derived constants.
	ValidationCacheTTL   time.Duration `envconfig:"VALIDATION_CACHE_TTL" default:"30m"`
	ValidationStrict     bool          `envconfig:"VALIDATION_STRICT" default:"false"`
	SpamWeightGeneric    float64       `envconfig:"SPAM_WEIGHT_GENERIC" default:"0.4"`
	SpamWeightDisposable float64       `envconfig:"SPAM_WEIGHT_DISPOSABLE" default:"0.8"`
	SpamWeightNoDomain   float64       `envconfig:"SPAM_WEIGHT_NO_DOMAIN" default:"0.6"`
	SpamWeightNoMX       float64       `envconfig:"SPAM_WEIGHT_NO_MX" default:"0.3"`
	SpamWeightTestWord   float64       `envconfig:"SPAM_WEIGHT_TEST_WORD" default:"0.3"`
	SpamWeightOddLength  float64       `envconfig:"SPAM_WEIGHT_ODD_LENGTH" default:"0.2"`
	SpamStrictThreshold  float64       `envconfig:"SPAM_STRICT_THRESHOLD" default:"0.7"`
	SpamLenientThreshold float64       `envconfig:"SPAM_LENIENT_THRESHOLD" default:"0.9"`
	DisposableDomains    []string      `envconfig:"DISPOSABLE_DOMAINS" default:"10minutemail,guerrillamail,mailinator,tempmail,throwaway,yopmail,trashmail,sharklasers,getnada,maildrop"`

	// LLM provider used by the query enhancement engine.
	LLMProvider string        `envconfig:"LLM_PROVIDER" default:"ollama"`
	LLMModel    string        `envconfig:"LLM_MODEL" default:"llama3.1"`
	LLMTimeout  time.Duration `envconfig:"LLM_TIMEOUT" default:"20s"`

	// Retry policy for LLM/classifier calls.
	AIMaxAttempts    int           `envconfig:"AI_MAX_ATTEMPTS" default:"3"`
	AIBackoffInitial time.Duration `envconfig:"AI_BACKOFF_INITIAL" default:"1s"`
	AIBackoffMax     time.Duration `envconfig:"AI_BACKOFF_MAX" default:"5s"`

	// Content fetching.
	FetchTimeout      time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`
	FetchMaxBytes     int64         `envconfig:"FETCH_MAX_BYTES" default:"2097152"`
	FetchConcurrency  int           `envconfig:"FETCH_CONCURRENCY" default:"4"`
	SearchURLTemplate string        `envconfig:"SEARCH_URL_TEMPLATE" default:"https://duckduckgo.com/html/?q=%s"`

	// Orchestrator.
	SearchTimeout    time.Duration `envconfig:"SEARCH_TIMEOUT" default:"120s"`
	SearchMaxQueries int           `envconfig:"SEARCH_MAX_QUERIES" default:"10"`
	SearchMaxResults int           `envconfig:"SEARCH_MAX_RESULTS" default:"50"`

	HealthCheckInterval time.Duration `envconfig:"HEALTH_CHECK_INTERVAL" default:"15s"`
}

// ResolveDefaults derives the counter backend when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	if c.CounterBackend == "" || c.CounterBackend == "auto" {
		if c.RedisAddr != "" {
			c.CounterBackend = "redis"
		} else {
			c.CounterBackend = "memory"
		}
	}
	allowed := map[string]bool{"redis": true, "memory": true}
	if !allowed[c.CounterBackend] {
		return fmt.Errorf("unsupported COUNTER_BACKEND: %s", c.CounterBackend)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be >= 1")
	}
	if c.AIMaxAttempts < 1 {
		return fmt.Errorf("AI_MAX_ATTEMPTS must be >= 1")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables should be prefixed with DISCOVERY_
// Example: DISCOVERY_REDIS_ADDR, DISCOVERY_SEARCH_TIMEOUT
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("DISCOVERY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("counter_backend", cfg.CounterBackend).
		Str("llm_provider", cfg.LLMProvider).
		Str("llm_model", cfg.LLMModel).
		Dur("search_timeout", cfg.SearchTimeout).
		Int("fetch_concurrency", cfg.FetchConcurrency).
		Str("redis_addr_present", func() string {
			if cfg.RedisAddr != "" {
				return "true"
			}
			return "false"
		}()).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	cfg := &Config{
		Environment:    EnvTesting,
		CounterBackend: "memory",

		SearchLimit:    5,
		SearchWindow:   time.Minute,
		SearchBlock:    5 * time.Minute,
		ProgressLimit:  10,
		ProgressWindow: time.Minute,
		ImportLimit:    10,
		ImportWindow:   time.Minute,
		ImportBlock:    10 * time.Minute,
		HealthLimit:    20,
		HealthWindow:   time.Minute,

		ValidationCacheTTL:   30 * time.Minute,
		SpamWeightGeneric:    0.4,
		SpamWeightDisposable: 0.8,
		SpamWeightNoDomain:   0.6,
		SpamWeightNoMX:       0.3,
		SpamWeightTestWord:   0.3,
		SpamWeightOddLength:  0.2,
		SpamStrictThreshold:  0.7,
		SpamLenientThreshold: 0.9,
		DisposableDomains: []string{
			"10minutemail", "guerrillamail", "mailinator", "tempmail",
			"throwaway", "yopmail", "trashmail", "sharklasers",
		},

		LLMProvider: "ollama",
		LLMModel:    "llama3.1",
		LLMTimeout:  5 * time.Second,

		AIMaxAttempts:    3,
		AIBackoffInitial: time.Millisecond,
		AIBackoffMax:     5 * time.Millisecond,

		FetchTimeout:      5 * time.Second,
		FetchMaxBytes:     1 << 20,
		FetchConcurrency:  4,
		SearchURLTemplate: "https://duckduckgo.com/html/?q=%s",

		SearchTimeout:    30 * time.Second,
		SearchMaxQueries: 10,
		SearchMaxResults: 50,

		HealthCheckInterval: time.Second,
	}
	return cfg
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}
