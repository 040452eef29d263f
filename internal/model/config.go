package model

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
)

var configValidate = validator.New()

// Config is the complete Veracity configuration
type Config struct {
	Detector      DetectorConfig      `yaml:"detector" mapstructure:"detector"`
	Sampler       SamplerConfig       `yaml:"sampler" mapstructure:"sampler"`
	KnowledgeBase KnowledgeBaseConfig `yaml:"knowledge_base" mapstructure:"knowledge_base"`
	Concurrency   ConcurrencyConfig   `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting  RateLimitConfig     `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Logging       LoggingConfig       `yaml:"logging" mapstructure:"logging"`
}

// DetectorConfig tunes the detection pipeline
type DetectorConfig struct {
	// A response is flagged once confidence drops below 1 - HallucinationThreshold
	HallucinationThreshold float64 `yaml:"hallucination_threshold" mapstructure:"hallucination_threshold" validate:"gte=0,lte=1"`
	SampleCount            int     `yaml:"sample_count" mapstructure:"sample_count" validate:"gte=1,lte=100"`
	ConsensusThreshold     float64 `yaml:"consensus_threshold" mapstructure:"consensus_threshold" validate:"gt=0,lte=1"`
	DropoutRate            float64 `yaml:"dropout_rate" mapstructure:"dropout_rate" validate:"gte=0,lt=1"`
	UncertaintySamples     int     `yaml:"uncertainty_samples" mapstructure:"uncertainty_samples" validate:"gte=1"`
	SamplerConcurrency     int     `yaml:"sampler_concurrency" mapstructure:"sampler_concurrency" validate:"gte=1"`
	MaxResponseBytes       int     `yaml:"max_response_bytes" mapstructure:"max_response_bytes" validate:"gte=0"` // 0 = unlimited
}

// SamplerConfig configures the production sampler used for self-consistency checks
type SamplerConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=openai ollama"` // Empty disables sampling
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKey      string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	Temperature float32       `yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`
	HTTPProxy   string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy  string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy     string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`

	// Circuit breaker around sampler calls
	BreakerFailures    uint32        `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerOpenTimeout time.Duration `yaml:"breaker_open_timeout" mapstructure:"breaker_open_timeout"`
}

// KnowledgeBaseConfig selects the read-only knowledge base backend
type KnowledgeBaseConfig struct {
	Type     string        `yaml:"type" mapstructure:"type" validate:"omitempty,oneof=file badger"` // Empty = no knowledge base
	Path     string        `yaml:"path" mapstructure:"path" validate:"required_with=Type"`
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"` // 0 disables the lookup cache
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=1"`
}

// RateLimitConfig limits sampler requests per provider
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gte=0"` // 0 = unlimited
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size" validate:"gte=0"`

	// Per-provider overrides keyed by provider name (openai, ollama)
	Providers map[string]ProviderRateLimit `yaml:"providers,omitempty" mapstructure:"providers" validate:"dive"`
}

// ProviderRateLimit overrides the default rate for one provider
type ProviderRateLimit struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gte=0"` // 0 = unlimited
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size" validate:"gte=0"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Addr        string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
}

// LoggingConfig configures structured logging
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=text json"`
}

// DefaultDetectorConfig returns the detector defaults
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		HallucinationThreshold: 0.6,
		SampleCount:            5,
		ConsensusThreshold:     0.7,
		DropoutRate:            0.1,
		UncertaintySamples:     10,
		SamplerConcurrency:     5,
		MaxResponseBytes:       1 << 20,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Detector: DefaultDetectorConfig(),
		Sampler: SamplerConfig{
			Timeout:            60 * time.Second,
			Temperature:        0.8,
			MaxTokens:          512,
			BreakerFailures:    5,
			BreakerOpenTimeout: 30 * time.Second,
		},
		KnowledgeBase: KnowledgeBaseConfig{
			CacheTTL: 10 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			ReadTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks every section against its constraints
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Validate checks the detector settings against their constraints
func (c DetectorConfig) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid detector config: %w", err)
	}
	return nil
}
