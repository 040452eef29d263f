package sampler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/worker"
)

// NewProvider creates a provider based on configuration. An empty provider
// name disables sampling and returns nil.
func NewProvider(config model.SamplerConfig, logger *slog.Logger) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAISampler(config, logger)

	case "ollama":
		return NewOllamaSampler(config, logger)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown sampler provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// New builds the guarded production sampler described by cfg. It returns
// a nil Provider when sampling is disabled.
func New(cfg *model.Config, logger *slog.Logger) (Provider, error) {
	provider, err := NewProvider(cfg.Sampler, logger)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}

	return NewGuard(provider, GuardConfig{
		Limiter:     NewLimiter(cfg.RateLimiting),
		MaxFailures: cfg.Sampler.BreakerFailures,
		OpenTimeout: cfg.Sampler.BreakerOpenTimeout,
		Logger:      logger,
	}), nil
}

// NewLimiter builds the sampler rate limiter, applying per-provider overrides
func NewLimiter(cfg model.RateLimitConfig) *worker.Limiter {
	limiter := worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
	for name, override := range cfg.Providers {
		limiter.SetRate(strings.ToLower(name), override.RequestsPerSecond, override.BurstSize)
	}
	return limiter
}
