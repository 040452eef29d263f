package sampler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/veracity/internal/worker"
	"github.com/sony/gobreaker"
)

// Guard wraps a provider with a rate limiter and a circuit breaker. An open
// breaker fails calls immediately, so a consistency check records the
// sample as failed instead of waiting on a dead backend.
type Guard struct {
	provider Provider
	limiter  *worker.Limiter
	breaker  *gobreaker.CircuitBreaker
}

// GuardConfig configures a Guard
type GuardConfig struct {
	Limiter     *worker.Limiter // nil disables rate limiting
	MaxFailures uint32          // Consecutive failures before the breaker opens; 0 disables the breaker
	OpenTimeout time.Duration   // How long the breaker stays open
	Logger      *slog.Logger
}

// NewGuard wraps provider
func NewGuard(provider Provider, cfg GuardConfig) *Guard {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g := &Guard{provider: provider, limiter: cfg.Limiter}

	if cfg.MaxFailures > 0 {
		maxFailures := cfg.MaxFailures
		g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    provider.Name(),
			Timeout: cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			IsSuccessful: func(err error) bool {
				// Caller cancellation says nothing about backend health
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("sampler circuit breaker state change", "provider", name, "from", from.String(), "to", to.String())
			},
		})
	}

	return g
}

// Name returns the wrapped provider name
func (g *Guard) Name() string {
	return g.provider.Name()
}

// IsAvailable reports whether the breaker is closed and the provider is reachable
func (g *Guard) IsAvailable(ctx context.Context) bool {
	if g.breaker != nil && g.breaker.State() == gobreaker.StateOpen {
		return false
	}
	return g.provider.IsAvailable(ctx)
}

// Generate waits for a rate limit token, then calls the provider through
// the breaker
func (g *Guard) Generate(ctx context.Context, input map[string]interface{}) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx, g.provider.Name()); err != nil {
			return "", fmt.Errorf("rate limit: %w", err)
		}
	}

	if g.breaker == nil {
		return g.provider.Generate(ctx, input)
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.provider.Generate(ctx, input)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}
